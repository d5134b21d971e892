package models

import (
	"image"
	"time"
)

// BoundingBox is an axis-aligned face rectangle in pixel coordinates.
type BoundingBox struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max" validate:"gtfield=XMin"`
	YMax float64 `json:"y_max" validate:"gtfield=YMin"`
}

func (b BoundingBox) Width() float64 {
	return b.XMax - b.XMin
}

func (b BoundingBox) Height() float64 {
	return b.YMax - b.YMin
}

func (b BoundingBox) Area() float64 {
	return b.Width() * b.Height()
}

// Valid reports whether the box has a positive extent on both axes.
func (b BoundingBox) Valid() bool {
	return b.XMin < b.XMax && b.YMin < b.YMax
}

// BoxFromRect converts an integer rectangle into a BoundingBox.
func BoxFromRect(r image.Rectangle) BoundingBox {
	return BoundingBox{
		XMin: float64(r.Min.X),
		YMin: float64(r.Min.Y),
		XMax: float64(r.Max.X),
		YMax: float64(r.Max.Y),
	}
}

// Detection is a single face found by a detector pass.
type Detection struct {
	Box       BoundingBox
	Score     float64
	PoseIndex int
}

// ConfidenceResult is the detector's opinion of a cropped face.
type ConfidenceResult struct {
	Score        float64 `json:"score"`
	PoseCategory string  `json:"type"`
	PoseIndex    int     `json:"type_raw"`
}

// FaceCropResult holds the two views of an aligned face.
type FaceCropResult struct {
	Loose image.Image
	Tight image.Image
}

type ProcessingTimings struct {
	RequestID   string
	ImageDecode time.Duration
	Assessment  time.Duration
	Encode      time.Duration
	Total       time.Duration
}
