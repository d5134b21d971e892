package detections

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/Tutortoise/face-quality-service/models"

	"github.com/disintegration/imaging"
)

// LandmarkConfig describes a 68-point landmark regression model exported to
// ONNX: RGB input of InputSize x InputSize, 136 outputs normalized to the crop.
type LandmarkConfig struct {
	ModelPath  string
	InputName  string
	OutputName string
	InputSize  int
	CropScale  float64
	PoolSize   int
}

func (c LandmarkConfig) withDefaults() LandmarkConfig {
	if c.InputName == "" {
		c.InputName = "input"
	}
	if c.OutputName == "" {
		c.OutputName = "output"
	}
	if c.InputSize <= 0 {
		c.InputSize = DefaultLandmarkInputSize
	}
	if c.CropScale <= 0 {
		c.CropScale = DefaultLandmarkCropScale
	}
	return c
}

type LandmarkPredictor struct {
	cfg  LandmarkConfig
	pool *ModelSessionPool
}

func NewLandmarkPredictor(cfg LandmarkConfig) (*LandmarkPredictor, error) {
	cfg = cfg.withDefaults()
	size := int64(cfg.InputSize)
	factory := NewSessionFactory(SessionConfig{
		ModelPath:   cfg.ModelPath,
		InputName:   cfg.InputName,
		OutputName:  cfg.OutputName,
		InputShape:  []int64{1, 3, size, size},
		OutputShape: []int64{1, models.LandmarkCount * 2},
	})

	pool, err := NewModelSessionPool("landmark_predictor", factory, cfg.PoolSize)
	if err != nil {
		return nil, err
	}
	return &LandmarkPredictor{cfg: cfg, pool: pool}, nil
}

func (p *LandmarkPredictor) Pool() *ModelSessionPool {
	return p.pool
}

func (p *LandmarkPredictor) Close() {
	p.pool.Destroy()
}

// Predict returns the 68 landmarks of the face inside box, in the
// coordinates of img.
func (p *LandmarkPredictor) Predict(ctx context.Context, img image.Image, box models.BoundingBox) (models.LandmarkSet, error) {
	if !box.Valid() {
		return nil, fmt.Errorf("invalid face box %+v", box)
	}

	region := squareRegion(box, p.cfg.CropScale)
	patch := extractPatch(img, region)
	resized := imaging.Resize(patch, p.cfg.InputSize, p.cfg.InputSize, imaging.Linear)

	session, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire landmark session: %w", err)
	}

	packCHW(resized, session.Input.GetData(), p.cfg.InputSize, p.cfg.InputSize)
	if err := session.Run(); err != nil {
		p.pool.Discard(session)
		return nil, fmt.Errorf("landmark inference: %w", err)
	}

	raw := append([]float32(nil), session.Output.GetData()...)
	p.pool.Release(session)

	return decodeLandmarks(raw, region)
}

// squareRegion is the square of side scale*max(w, h) centred on box.
func squareRegion(box models.BoundingBox, scale float64) image.Rectangle {
	side := math.Max(box.Width(), box.Height()) * scale
	cx := (box.XMin + box.XMax) / 2
	cy := (box.YMin + box.YMax) / 2

	x0 := int(math.Round(cx - side/2))
	y0 := int(math.Round(cy - side/2))
	s := int(math.Round(side))
	if s < 1 {
		s = 1
	}
	return image.Rect(x0, y0, x0+s, y0+s)
}

// extractPatch copies region out of img, padding the part outside the image
// with black.
func extractPatch(img image.Image, region image.Rectangle) *image.NRGBA {
	patch := imaging.New(region.Dx(), region.Dy(), color.Black)

	visible := region.Intersect(img.Bounds())
	if visible.Empty() {
		return patch
	}

	crop := imaging.Crop(img, visible)
	return imaging.Paste(patch, crop, visible.Min.Sub(region.Min))
}

func decodeLandmarks(raw []float32, region image.Rectangle) (models.LandmarkSet, error) {
	if len(raw) != models.LandmarkCount*2 {
		return nil, fmt.Errorf("unexpected landmark output length: got %d, want %d", len(raw), models.LandmarkCount*2)
	}

	w := float64(region.Dx())
	h := float64(region.Dy())
	landmarks := make(models.LandmarkSet, models.LandmarkCount)
	for i := range landmarks {
		landmarks[i] = models.Point{
			X: float64(region.Min.X) + float64(raw[2*i])*w,
			Y: float64(region.Min.Y) + float64(raw[2*i+1])*h,
		}
	}
	return landmarks, landmarks.Validate()
}
