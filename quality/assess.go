package quality

import (
	"context"
	"fmt"
	"image"

	"github.com/Tutortoise/face-quality-service/models"

	"github.com/disintegration/imaging"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Assessor runs the per-face quality pipeline. It is safe for concurrent use
// as long as its detector and predictor are.
type Assessor struct {
	detector  FaceDetector
	predictor LandmarkPredictor
	log       logrus.FieldLogger
	validate  *validator.Validate
}

type Option func(*Assessor)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(a *Assessor) {
		a.log = logger
	}
}

func WithValidator(v *validator.Validate) Option {
	return func(a *Assessor) {
		a.validate = v
	}
}

func NewAssessor(detector FaceDetector, predictor LandmarkPredictor, options ...Option) *Assessor {
	a := &Assessor{
		detector:  detector,
		predictor: predictor,
	}
	for _, option := range options {
		option(a)
	}

	if a.log == nil {
		a.log = logrus.StandardLogger()
	}
	if a.validate == nil {
		a.validate = validator.New()
	}
	return a
}

// detect runs the detector, reporting a panic inside it as an error.
func (a *Assessor) detect(ctx context.Context, img image.Image) (dets []models.Detection, err error) {
	defer func() {
		if r := recover(); r != nil {
			dets = nil
			err = fmt.Errorf("detector panic: %v", r)
		}
	}()
	return a.detector.Detect(ctx, img)
}

// ScoreConfidence runs the detector on crop and reports its first detection.
// It returns nil when nothing is found, the crop is empty or the detector
// fails or panics.
func (a *Assessor) ScoreConfidence(ctx context.Context, crop image.Image) *models.ConfidenceResult {
	if crop == nil || crop.Bounds().Empty() {
		return nil
	}

	dets, err := a.detect(ctx, crop)
	if err != nil {
		a.log.WithError(stageError("score", err)).Error("Confidence calculation failed")
		return nil
	}
	if len(dets) == 0 {
		a.log.WithField("size", crop.Bounds().Size()).Debug(ErrNoDetection)
		return nil
	}

	return models.NewConfidenceResult(dets[0])
}

// Assess crops and scores every face in faces, in order. Faces without a
// usable box are skipped.
func (a *Assessor) Assess(ctx context.Context, img image.Image, faces []models.FaceRequest) []models.FaceAssessment {
	src := toNRGBA(img)
	results := make([]models.FaceAssessment, 0, len(faces))

	for i, face := range faces {
		logger := a.log.WithField("face", i)

		if face.Box == nil {
			logger.Debug("Skipping face without box")
			continue
		}
		if err := a.validate.Struct(face.Box); err != nil {
			logger.WithError(stageError("validate", fmt.Errorf("%w: %v", ErrMalformedInput, err))).Warn("Skipping face")
			continue
		}

		crop := a.cropFace(ctx, logger, src, *face.Box)
		if crop == nil {
			continue
		}

		size := crop.Bounds().Size()
		results = append(results, models.FaceAssessment{
			Box:         *face.Box,
			Confidence:  a.ScoreConfidence(ctx, crop),
			CroppedSize: [2]int{size.X, size.Y},
			Extensions:  face.Extensions,
		})
	}

	return results
}

// cropFace prefers the aligned loose crop and falls back to SimpleCrop.
func (a *Assessor) cropFace(ctx context.Context, logger logrus.FieldLogger, src *image.NRGBA, box models.BoundingBox) image.Image {
	aligned, err := a.AlignedCrop(ctx, src, box)
	if err == nil {
		return aligned.Loose
	}
	logger.WithError(err).Debug("Face alignment failed, using simple crop")

	crop, err := SimpleCrop(src, box, SimpleCropPercentage)
	if err != nil {
		logger.WithError(stageError("crop", err)).Warn("Skipping face")
		return nil
	}
	return crop
}

// DetectEnhanced detects every face in img and reports each with a simple
// crop and the detector's own score and pose.
func (a *Assessor) DetectEnhanced(ctx context.Context, img image.Image) ([]models.FaceAssessment, error) {
	src := toNRGBA(img)
	gray := imaging.Grayscale(src)

	dets, err := a.detect(ctx, gray)
	if err != nil {
		return nil, stageError("detect", err)
	}

	results := make([]models.FaceAssessment, 0, len(dets))
	for _, d := range dets {
		crop, err := SimpleCrop(src, d.Box, SimpleCropPercentage)
		if err != nil {
			a.log.WithError(err).Debug("Skipping detection")
			continue
		}

		size := crop.Bounds().Size()
		results = append(results, models.FaceAssessment{
			Box:         d.Box,
			Confidence:  models.NewConfidenceResult(d),
			CroppedSize: [2]int{size.X, size.Y},
		})
	}

	return results, nil
}
