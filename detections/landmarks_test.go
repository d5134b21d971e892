package detections

import (
	"image"
	"image/color"
	"testing"

	"github.com/Tutortoise/face-quality-service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquareRegion(t *testing.T) {
	box := models.BoundingBox{XMin: 100, YMin: 100, XMax: 200, YMax: 150}

	r := squareRegion(box, 1.2)
	assert.Equal(t, image.Rect(90, 65, 210, 185), r)
	assert.Equal(t, r.Dx(), r.Dy())
}

func TestExtractPatchPadsOutside(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	patch := extractPatch(img, image.Rect(-5, -5, 5, 5))
	require.Equal(t, image.Rect(0, 0, 10, 10), patch.Bounds())

	assert.Equal(t, color.NRGBA{A: 255}, patch.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 255}, patch.NRGBAAt(7, 7))
}

func TestExtractPatchOutsideImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))

	patch := extractPatch(img, image.Rect(50, 50, 60, 60))
	assert.Equal(t, image.Rect(0, 0, 10, 10), patch.Bounds())
}

func TestDecodeLandmarks(t *testing.T) {
	raw := make([]float32, models.LandmarkCount*2)
	raw[0], raw[1] = 0.5, 0.25
	raw[2*67], raw[2*67+1] = 1, 1

	lm, err := decodeLandmarks(raw, image.Rect(10, 20, 110, 220))
	require.NoError(t, err)
	require.Len(t, lm, models.LandmarkCount)

	assert.InDelta(t, 60, lm[0].X, 1e-6)
	assert.InDelta(t, 70, lm[0].Y, 1e-6)
	assert.InDelta(t, 110, lm[67].X, 1e-6)
	assert.InDelta(t, 220, lm[67].Y, 1e-6)
	assert.InDelta(t, 10, lm[1].X, 1e-6)
}

func TestDecodeLandmarksWrongLength(t *testing.T) {
	_, err := decodeLandmarks(make([]float32, 10), image.Rect(0, 0, 10, 10))
	assert.Error(t, err)
}
