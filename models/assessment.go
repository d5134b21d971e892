package models

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Keys owned by FaceAssessment; passthrough fields never override them.
const (
	KeyBox         = "box"
	KeyConfidence  = "confidence"
	KeyCroppedSize = "cropped_size"
)

func IsReservedKey(key string) bool {
	switch key {
	case KeyBox, KeyConfidence, KeyCroppedSize:
		return true
	}
	return false
}

// Extension is a caller-supplied field echoed back untouched.
type Extension struct {
	Key   string
	Value jsoniter.RawMessage
}

// FaceRequest is one entry of the caller's face list. Unknown keys are kept,
// in order, as Extensions.
type FaceRequest struct {
	Box        *BoundingBox
	Extensions []Extension
}

func (f *FaceRequest) UnmarshalJSON(data []byte) error {
	*f = FaceRequest{}

	iter := jsoniter.ParseBytes(json, data)
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		raw := skipValue(it)
		if key == KeyBox {
			var box BoundingBox
			// A box that does not decode is treated like a missing one.
			if string(raw) != "null" && json.Unmarshal(raw, &box) == nil {
				f.Box = &box
			}
			return true
		}
		f.Extensions = append(f.Extensions, Extension{Key: key, Value: raw})
		return true
	})
	return iter.Error
}

func (f FaceRequest) MarshalJSON() ([]byte, error) {
	stream := json.BorrowStream(nil)
	defer json.ReturnStream(stream)

	stream.WriteObjectStart()
	stream.WriteObjectField(KeyBox)
	stream.WriteVal(f.Box)
	for _, ext := range f.Extensions {
		if ext.Key == KeyBox {
			continue
		}
		stream.WriteMore()
		stream.WriteObjectField(ext.Key)
		stream.WriteRaw(string(ext.Value))
	}
	stream.WriteObjectEnd()

	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// FaceAssessment is the per-face result of an assessment call.
type FaceAssessment struct {
	Box         BoundingBox
	Confidence  *ConfidenceResult
	CroppedSize [2]int
	Extensions  []Extension
}

func (a FaceAssessment) MarshalJSON() ([]byte, error) {
	stream := json.BorrowStream(nil)
	defer json.ReturnStream(stream)

	stream.WriteObjectStart()
	stream.WriteObjectField(KeyBox)
	stream.WriteVal(a.Box)
	stream.WriteMore()
	stream.WriteObjectField(KeyConfidence)
	stream.WriteVal(a.Confidence)
	stream.WriteMore()
	stream.WriteObjectField(KeyCroppedSize)
	stream.WriteVal(a.CroppedSize)
	for _, ext := range a.Extensions {
		if IsReservedKey(ext.Key) {
			continue
		}
		stream.WriteMore()
		stream.WriteObjectField(ext.Key)
		stream.WriteRaw(string(ext.Value))
	}
	stream.WriteObjectEnd()

	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

func (a *FaceAssessment) UnmarshalJSON(data []byte) error {
	*a = FaceAssessment{}

	iter := jsoniter.ParseBytes(json, data)
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		switch key {
		case KeyBox:
			it.ReadVal(&a.Box)
		case KeyConfidence:
			it.ReadVal(&a.Confidence)
		case KeyCroppedSize:
			it.ReadVal(&a.CroppedSize)
		default:
			raw := skipValue(it)
			a.Extensions = append(a.Extensions, Extension{Key: key, Value: raw})
		}
		return it.Error == nil
	})
	return iter.Error
}

// skipValue returns a copy of the next value without its leading whitespace.
func skipValue(it *jsoniter.Iterator) []byte {
	return append([]byte(nil), bytes.TrimSpace(it.SkipAndReturnBytes())...)
}
