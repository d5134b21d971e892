package quality

import (
	"context"
	"image"
	"image/color"
	"io"

	"github.com/Tutortoise/face-quality-service/models"
	"github.com/sirupsen/logrus"
)

type detectorFunc func(img image.Image) ([]models.Detection, error)

func (f detectorFunc) Detect(_ context.Context, img image.Image) ([]models.Detection, error) {
	return f(img)
}

func staticDetector(dets ...models.Detection) detectorFunc {
	return func(image.Image) ([]models.Detection, error) {
		return append([]models.Detection(nil), dets...), nil
	}
}

type predictorFunc func(img image.Image, box models.BoundingBox) (models.LandmarkSet, error)

func (f predictorFunc) Predict(_ context.Context, img image.Image, box models.BoundingBox) (models.LandmarkSet, error) {
	return f(img, box)
}

// levelFace places a 10x7 grid of points over box with both eyes on the same
// row, so the derived rotation is the identity.
func levelFace(_ image.Image, box models.BoundingBox) (models.LandmarkSet, error) {
	return faceLandmarks(box, 0.4, 0.4), nil
}

// faceLandmarks spreads the 68 points over box. The eye groups sit at the
// given relative heights; the nose sits below them.
func faceLandmarks(box models.BoundingBox, leftEyeY, rightEyeY float64) models.LandmarkSet {
	w, h := box.Width(), box.Height()
	lm := make(models.LandmarkSet, models.LandmarkCount)
	for i := range lm {
		lm[i] = models.Point{
			X: box.XMin + float64(i%10)*w/9,
			Y: box.YMin + float64(i/10)*h/6,
		}
	}
	for i := models.LeftEyeRange[0]; i < models.LeftEyeRange[1]; i++ {
		lm[i] = models.Point{X: box.XMin + 0.3*w, Y: box.YMin + leftEyeY*h}
	}
	for i := models.RightEyeRange[0]; i < models.RightEyeRange[1]; i++ {
		lm[i] = models.Point{X: box.XMin + 0.7*w, Y: box.YMin + rightEyeY*h}
	}
	for i := models.NoseRange[0]; i < models.NoseRange[1]; i++ {
		lm[i] = models.Point{X: box.XMin + 0.5*w, Y: box.YMin + 0.6*h}
	}
	return lm
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestAssessor(detector FaceDetector, predictor LandmarkPredictor) *Assessor {
	return NewAssessor(detector, predictor, WithLogger(quietLogger()))
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func bbox(x0, y0, x1, y1 float64) models.BoundingBox {
	return models.BoundingBox{XMin: x0, YMin: y0, XMax: x1, YMax: y1}
}
