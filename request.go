package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"

	"github.com/Tutortoise/face-quality-service/models"
	"github.com/Tutortoise/face-quality-service/quality"

	"github.com/disintegration/imaging"
	jsoniter "github.com/json-iterator/go"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	errMissingImage = errors.New("missing 'image' in request")
	errMissingFile  = errors.New("missing 'file' in request")
)

type assessRequest struct {
	Image string               `json:"image"`
	Faces []models.FaceRequest `json:"faces"`
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

// readAssessRequest accepts either a JSON body with a base64 image or a
// multipart form with a 'file' part and a 'faces' JSON field.
func readAssessRequest(r *http.Request, maxBytes int64) ([]byte, []models.FaceRequest, error) {
	switch mediaType(r) {
	case "application/json":
		return handleJSONRequest(r)
	case "multipart/form-data":
		return handleMultipartRequest(r, maxBytes)
	default:
		return nil, nil, errMissingFile
	}
}

func handleJSONRequest(r *http.Request) ([]byte, []models.FaceRequest, error) {
	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if req.Image == "" {
		return nil, nil, errMissingImage
	}

	data, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	return data, req.Faces, nil
}

func handleMultipartRequest(r *http.Request, maxBytes int64) ([]byte, []models.FaceRequest, error) {
	data, err := readFormFile(r, maxBytes)
	if err != nil {
		return nil, nil, err
	}

	var faces []models.FaceRequest
	if raw := r.FormValue("faces"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &faces); err != nil {
			return nil, nil, fmt.Errorf("invalid 'faces' field: %w", err)
		}
	}
	return data, faces, nil
}

func readFormFile(r *http.Request, maxBytes int64) ([]byte, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, err
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, errMissingFile
		}
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// readImageUpload takes the 'file' part of a multipart form, or the raw body
// for any other content type.
func readImageUpload(r *http.Request, maxBytes int64) ([]byte, error) {
	if mediaType(r) == "multipart/form-data" {
		return readFormFile(r, maxBytes)
	}
	return handleRawRequest(r)
}

func handleRawRequest(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errMissingFile
	}
	return data, nil
}

// decodeImage decodes any registered format, applying EXIF orientation.
func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", quality.ErrImageDecode, err)
	}
	return img, nil
}
