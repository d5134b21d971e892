package detections

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/Tutortoise/face-quality-service/models"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
)

// PigoParams tunes the cascade scan.
type PigoParams struct {
	MinSize       int
	MaxSize       int
	ShiftFactor   float64
	ScaleFactor   float64
	IoUThreshold  float64
	MinQuality    float64
	RotationAngle float64
}

func DefaultPigoParams() PigoParams {
	return PigoParams{
		MinSize:       DefaultMinFaceSize,
		ShiftFactor:   DefaultShiftFactor,
		ScaleFactor:   DefaultScaleFactor,
		IoUThreshold:  DefaultIoUThreshold,
		MinQuality:    DefaultMinQuality,
		RotationAngle: DefaultRotationAngle,
	}
}

// cascadePass is one scan of the cascade at a fixed rotation, reported
// with the pose it stands for. Angles are in turns (1.0 is 2*pi).
type cascadePass struct {
	angle float64
	pose  int
}

// PigoDetector is a pure-Go face detector. Besides the upright scan it runs
// the cascade rotated both ways, which yields the in-plane rotation poses.
// The unpacked cascade is read-only, so one detector serves all requests.
type PigoDetector struct {
	classifier *pigo.Pigo
	params     PigoParams
	passes     []cascadePass
}

func NewPigoDetector(cascade []byte, params PigoParams) (*PigoDetector, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the cascade file: %w", err)
	}

	if params.MinSize <= 0 {
		params.MinSize = DefaultMinFaceSize
	}
	if params.ShiftFactor <= 0 {
		params.ShiftFactor = DefaultShiftFactor
	}
	if params.ScaleFactor <= 1 {
		params.ScaleFactor = DefaultScaleFactor
	}
	if params.IoUThreshold <= 0 {
		params.IoUThreshold = DefaultIoUThreshold
	}

	passes := []cascadePass{{angle: 0, pose: models.PoseFront}}
	if params.RotationAngle > 0 && params.RotationAngle < 0.5 {
		passes = append(passes,
			cascadePass{angle: params.RotationAngle, pose: models.PoseFrontRotateLeft},
			cascadePass{angle: 1 - params.RotationAngle, pose: models.PoseFrontRotateRight},
		)
	}

	return &PigoDetector{classifier: classifier, params: params, passes: passes}, nil
}

// LoadPigoDetector reads the cascade from path.
func LoadPigoDetector(path string, params PigoParams) (*PigoDetector, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cascade file: %w", err)
	}
	return NewPigoDetector(cascade, params)
}

// Detect returns the faces found in img sorted by descending score, in the
// coordinates of img's bounds.
func (d *PigoDetector) Detect(ctx context.Context, img image.Image) ([]models.Detection, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, nil
	}

	// RgbToGrayscale indexes from (0, 0).
	src := imaging.Clone(img)
	pixels := pigo.RgbToGrayscale(src)
	cols, rows := b.Dx(), b.Dy()

	maxSize := d.params.MaxSize
	if maxSize <= 0 {
		maxSize = max(cols, rows)
	}

	cParams := pigo.CascadeParams{
		MinSize:     d.params.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: d.params.ShiftFactor,
		ScaleFactor: d.params.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	var all []models.Detection
	for _, pass := range d.passes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dets := d.classifier.RunCascade(cParams, pass.angle)
		dets = d.classifier.ClusterDetections(dets, d.params.IoUThreshold)
		all = append(all, convertDetections(dets, pass.pose, d.params.MinQuality, b)...)
	}

	return suppressOverlaps(all, d.params.IoUThreshold), nil
}

// convertDetections turns cascade hits (centre row/col and side) into boxes
// clipped to bounds, dropping those below minQuality.
func convertDetections(dets []pigo.Detection, pose int, minQuality float64, bounds image.Rectangle) []models.Detection {
	out := make([]models.Detection, 0, len(dets))
	for _, det := range dets {
		if float64(det.Q) < minQuality {
			continue
		}
		half := det.Scale / 2
		r := image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half).
			Add(bounds.Min).
			Intersect(bounds)
		if r.Empty() {
			continue
		}
		out = append(out, models.Detection{
			Box:       models.BoxFromRect(r),
			Score:     float64(det.Q),
			PoseIndex: pose,
		})
	}
	return out
}
