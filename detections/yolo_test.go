package detections

import (
	"image"
	"image/color"
	"testing"

	"github.com/Tutortoise/face-quality-service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// predictionsOf lays rows of [cx, cy, w, h, score] out channel-major.
func predictionsOf(rows ...[5]float32) []float32 {
	n := len(rows)
	out := make([]float32, predictionChannels*n)
	for i, r := range rows {
		for c := 0; c < predictionChannels; c++ {
			out[c*n+i] = r[c]
		}
	}
	return out
}

func TestDecodePredictions(t *testing.T) {
	preds := predictionsOf(
		[5]float32{320, 320, 100, 200, 0.9},
		[5]float32{0, 0, 0, 0, 0},
		[5]float32{0, 0, 0, 0, 0},
		[5]float32{100, 100, 50, 50, 0.4},
		[5]float32{0, 0, 0, 0, 0},
		[5]float32{10, 10, 40, 40, 0.6},
		[5]float32{0, 0, 0, 0, 0},
		[5]float32{0, 0, 0, 0, 0},
	)

	dets, err := decodePredictions(preds, 640, 0.5, 1280, 640)
	require.NoError(t, err)
	require.Len(t, dets, 2)

	assert.InDelta(t, 0.9, dets[0].Score, 1e-6)
	assert.Equal(t, models.BoundingBox{XMin: 540, YMin: 220, XMax: 740, YMax: 420}, dets[0].Box)
	assert.Equal(t, models.PoseFront, dets[0].PoseIndex)

	assert.InDelta(t, 0.6, dets[1].Score, 1e-6)
	assert.Equal(t, models.BoundingBox{XMin: 0, YMin: 0, XMax: 60, YMax: 30}, dets[1].Box)
}

func TestDecodePredictionsRejectsBadLength(t *testing.T) {
	_, err := decodePredictions(make([]float32, 7), 640, 0.5, 100, 100)
	assert.Error(t, err)

	_, err = decodePredictions(nil, 640, 0.5, 100, 100)
	assert.Error(t, err)
}

func TestNumPredictions(t *testing.T) {
	assert.Equal(t, 8400, numPredictions(640))
	assert.Equal(t, 2100, numPredictions(320))
}

func TestPackCHW(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(2, 1, color.NRGBA{G: 255, B: 51, A: 255})

	dst := make([]float32, 3*3*2)
	packCHW(img, dst, 3, 2)

	plane := 6
	assert.InDelta(t, 1.0, dst[0], 1e-6)
	assert.InDelta(t, 0.0, dst[plane], 1e-6)
	assert.InDelta(t, 1.0, dst[plane+5], 1e-6)
	assert.InDelta(t, 0.2, dst[2*plane+5], 1e-6)

	gray := image.NewGray(image.Rect(0, 0, 3, 2))
	gray.SetGray(1, 0, color.Gray{Y: 255})
	packCHW(gray, dst, 3, 2)
	assert.InDelta(t, 1.0, dst[1], 1e-6)
	assert.InDelta(t, 1.0, dst[plane+1], 1e-6)
	assert.InDelta(t, 1.0, dst[2*plane+1], 1e-6)
	assert.InDelta(t, 0.0, dst[0], 1e-6)
}
