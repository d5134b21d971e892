package quality

import (
	"context"
	"image"

	"github.com/Tutortoise/face-quality-service/models"
)

// FaceDetector finds faces in an image. Detections are reported in the
// coordinates of the image bounds, best first.
type FaceDetector interface {
	Detect(ctx context.Context, img image.Image) ([]models.Detection, error)
}

// LandmarkPredictor locates the 68 landmarks of the face inside box.
type LandmarkPredictor interface {
	Predict(ctx context.Context, img image.Image, box models.BoundingBox) (models.LandmarkSet, error)
}
