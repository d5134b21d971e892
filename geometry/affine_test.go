package geometry

import (
	"image"
	"image/color"
	"testing"

	"github.com/Tutortoise/face-quality-service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotationMatrix2DZeroAngleIsIdentity(t *testing.T) {
	m := RotationMatrix2D(models.Point{X: 42, Y: 17}, 0, 1.0)

	assert.InDelta(t, 1.0, m.A, 1e-12)
	assert.InDelta(t, 0.0, m.B, 1e-12)
	assert.InDelta(t, 0.0, m.C, 1e-12)
	assert.InDelta(t, 0.0, m.D, 1e-12)
	assert.InDelta(t, 1.0, m.E, 1e-12)
	assert.InDelta(t, 0.0, m.F, 1e-12)
}

func TestRotationMatrix2DKeepsPivot(t *testing.T) {
	pivot := models.Point{X: 120, Y: 80}
	m := RotationMatrix2D(pivot, 33, 1.0)

	p := m.Apply(pivot)
	assert.InDelta(t, pivot.X, p.X, 1e-9)
	assert.InDelta(t, pivot.Y, p.Y, 1e-9)
	assert.InDelta(t, 33, m.Angle(), 1e-9)
}

func TestRotationMatrix2DLevelsTiltedSegment(t *testing.T) {
	left := models.Point{X: 100, Y: 100}
	right := models.Point{X: 150, Y: 150}
	m := RotationMatrix2D(models.Point{X: 125, Y: 125}, 45, 1.0)

	l, r := m.Apply(left), m.Apply(right)
	assert.InDelta(t, l.Y, r.Y, 1e-9)
	assert.Greater(t, r.X, l.X)
}

func TestApplyAll(t *testing.T) {
	m := Affine{A: 1, C: 5, E: 1, F: -3}
	out := m.ApplyAll([]models.Point{{X: 0, Y: 0}, {X: 1, Y: 2}})

	assert.Equal(t, []models.Point{{X: 5, Y: -3}, {X: 6, Y: -1}}, out)
}

func TestWarpIdentityKeepsPixels(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	src.Set(3, 2, color.NRGBA{R: 255, A: 255})

	dst := Warp(src, Identity)
	require.Equal(t, src.Bounds(), dst.Bounds())

	c := dst.NRGBAAt(3, 2)
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(255), c.A)
}

func TestWarpFillsOutsideWithBlack(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			src.Set(x, y, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}

	// Shift everything right by 5 pixels.
	dst := Warp(src, Affine{A: 1, C: 5, E: 1})

	assert.Equal(t, color.NRGBA{A: 255}, dst.NRGBAAt(1, 5))
	assert.Equal(t, uint8(200), dst.NRGBAAt(8, 5).R)
}

func TestWarpHandlesOffsetBounds(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	base.Set(12, 12, color.NRGBA{G: 255, A: 255})
	sub := base.SubImage(image.Rect(10, 10, 20, 20))

	dst := Warp(sub, Identity)
	require.Equal(t, image.Rect(0, 0, 10, 10), dst.Bounds())
	assert.Equal(t, uint8(255), dst.NRGBAAt(2, 2).G)
}

func brightest(img *image.NRGBA) image.Point {
	var at image.Point
	best := -1
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if v := int(img.NRGBAAt(x, y).R); v > best {
				best, at = v, image.Pt(x, y)
			}
		}
	}
	return at
}

func TestWarpMatchesApply(t *testing.T) {
	for _, angle := range []float64{90, -90, 180, 20} {
		src := image.NewNRGBA(image.Rect(0, 0, 21, 21))
		p := models.Point{X: 15, Y: 10}
		src.Set(int(p.X), int(p.Y), color.NRGBA{R: 255, A: 255})

		m := RotationMatrix2D(models.Point{X: 10, Y: 10}, angle, 1.0)
		want := m.Apply(p)

		got := brightest(Warp(src, m))
		assert.InDelta(t, want.X, float64(got.X), 0.5, "angle %v", angle)
		assert.InDelta(t, want.Y, float64(got.Y), 0.5, "angle %v", angle)
	}
}

func TestWarpQuarterTurnIsExact(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 21, 21))
	src.Set(15, 10, color.NRGBA{R: 255, A: 255})

	dst := Warp(src, RotationMatrix2D(models.Point{X: 10, Y: 10}, 90, 1.0))

	assert.Equal(t, image.Pt(10, 5), brightest(dst))
	assert.Greater(t, dst.NRGBAAt(10, 5).R, uint8(250))
}
