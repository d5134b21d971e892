package quality

import (
	"math"

	"github.com/Tutortoise/face-quality-service/geometry"
	"github.com/Tutortoise/face-quality-service/models"
)

// BuildTransform derives the rotation that levels the eye line, pivoting on
// the centroid of both eyes and the nose.
func BuildTransform(landmarks models.LandmarkSet) (geometry.Affine, error) {
	if err := landmarks.Validate(); err != nil {
		return geometry.Affine{}, err
	}

	leftEye := landmarks.LeftEye()
	rightEye := landmarks.RightEye()
	nose := landmarks.Nose()

	angle := math.Atan2(rightEye.Y-leftEye.Y, rightEye.X-leftEye.X) * 180 / math.Pi
	pivot := models.Point{
		X: (leftEye.X + rightEye.X + nose.X) / 3,
		Y: (leftEye.Y + rightEye.Y + nose.Y) / 3,
	}

	return geometry.RotationMatrix2D(pivot, angle, 1.0), nil
}
