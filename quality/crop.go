package quality

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/Tutortoise/face-quality-service/geometry"
	"github.com/Tutortoise/face-quality-service/models"

	"github.com/disintegration/imaging"
)

const (
	// LoosePercentage and MinPadding size the margin of the aligned loose crop.
	LoosePercentage = 0.2
	MinPadding      = 25.0

	// SimpleCropPercentage is the margin of the fallback crop. It has no floor.
	SimpleCropPercentage = 0.1
)

// Relaxation is the padding added around a w x h rectangle.
func Relaxation(w, h, percentage, minPadding float64) float64 {
	return math.Max(minPadding, math.Min(w*percentage, h*percentage))
}

// LooseRect pads tight by relaxation on every side. The origin is clamped to
// zero; the extent is clamped to the space left between the unpadded tight
// origin and the far edge of bounds. Values are rounded half to even. The
// result may reach outside bounds and is meant to be intersected with them.
func LooseRect(tight, bounds image.Rectangle, relaxation float64) image.Rectangle {
	x, y := float64(tight.Min.X), float64(tight.Min.Y)
	w, h := float64(tight.Dx()), float64(tight.Dy())

	px := math.RoundToEven(math.Max(0, x-relaxation))
	py := math.RoundToEven(math.Max(0, y-relaxation))
	pw := math.RoundToEven(math.Min(w+2*relaxation, float64(bounds.Dx())-x))
	ph := math.RoundToEven(math.Min(h+2*relaxation, float64(bounds.Dy())-y))

	// Not image.Rect: a negative extent must stay empty rather than be swapped.
	return image.Rectangle{
		Min: image.Pt(int(px), int(py)),
		Max: image.Pt(int(px+pw), int(py+ph)),
	}
}

// SimpleCrop cuts box out of img, padded by percentage of the smaller side
// and clamped to the image. The crop is empty when box lies outside img.
func SimpleCrop(img image.Image, box models.BoundingBox, percentage float64) (*image.NRGBA, error) {
	if !box.Valid() || !finite(box) {
		return nil, fmt.Errorf("%w: box %+v", ErrMalformedInput, box)
	}

	b := img.Bounds()
	r := math.Min(box.Width()*percentage, box.Height()*percentage)

	region := image.Rectangle{
		Min: image.Pt(max(b.Min.X, int(box.XMin-r)), max(b.Min.Y, int(box.YMin-r))),
		Max: image.Pt(min(b.Max.X, int(box.XMax+r)), min(b.Max.Y, int(box.YMax+r))),
	}
	return imaging.Crop(img, region), nil
}

func finite(b models.BoundingBox) bool {
	for _, v := range []float64{b.XMin, b.YMin, b.XMax, b.YMax} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// AlignedCrop re-locates the face near box, levels it using its landmarks
// and returns the padded loose crop together with the tight landmark crop.
// Every failure is reported as an error wrapping ErrNoMatch or ErrAlignment.
func (a *Assessor) AlignedCrop(ctx context.Context, img image.Image, box models.BoundingBox) (result *models.FaceCropResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = stageError("align", fmt.Errorf("%w: panic: %v", ErrAlignment, r))
		}
	}()

	src := toNRGBA(img)
	gray := imaging.Grayscale(src)

	match, ok, err := FindBestMatch(ctx, a.detector, gray, box)
	if err != nil {
		return nil, stageError("match", fmt.Errorf("%w: %w", ErrAlignment, err))
	}
	if !ok {
		return nil, stageError("match", ErrNoMatch)
	}

	landmarks, err := a.predictor.Predict(ctx, gray, match.Box)
	if err != nil {
		return nil, stageError("landmarks", fmt.Errorf("%w: %w", ErrAlignment, err))
	}

	m, err := BuildTransform(landmarks)
	if err != nil {
		return nil, stageError("transform", fmt.Errorf("%w: %w", ErrAlignment, err))
	}

	warped := geometry.Warp(src, m)
	tight := geometry.BoundingRect(m.ApplyAll(landmarks))
	relaxation := Relaxation(float64(tight.Dx()), float64(tight.Dy()), LoosePercentage, MinPadding)
	loose := LooseRect(tight, warped.Bounds(), relaxation)

	looseImg := imaging.Crop(warped, loose)
	if looseImg.Bounds().Empty() {
		return nil, stageError("crop", fmt.Errorf("%w: loose crop %v is outside the image", ErrAlignment, loose))
	}

	return &models.FaceCropResult{
		Loose: looseImg,
		Tight: imaging.Crop(warped, tight),
	}, nil
}

// toNRGBA returns img as an NRGBA image anchored at (0, 0), copying only
// when needed.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}
