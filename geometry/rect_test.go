package geometry

import (
	"image"
	"testing"

	"github.com/Tutortoise/face-quality-service/models"
	"github.com/stretchr/testify/assert"
)

func box(x0, y0, x1, y1 float64) models.BoundingBox {
	return models.BoundingBox{XMin: x0, YMin: y0, XMax: x1, YMax: y1}
}

func TestIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b models.BoundingBox
		want float64
	}{
		{"identical", box(0, 0, 10, 10), box(0, 0, 10, 10), 1.0},
		{"disjoint", box(0, 0, 10, 10), box(20, 20, 30, 30), 0.0},
		{"half overlap", box(0, 0, 10, 10), box(5, 0, 15, 10), 50.0 / 150.0},
		{"contained", box(0, 0, 10, 10), box(0, 0, 5, 5), 0.25},
		{"touching edges", box(0, 0, 10, 10), box(10, 0, 20, 10), 0.0},
		{"disjoint on y only", box(0, 0, 10, 10), box(0, 11, 10, 20), 0.0},
		{"degenerate", box(5, 5, 5, 5), box(5, 5, 5, 5), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, IoU(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, IoU(tt.b, tt.a), 1e-9, "iou must be symmetric")
		})
	}
}

func TestIoUBounded(t *testing.T) {
	boxes := []models.BoundingBox{
		box(0, 0, 10, 10), box(3, 4, 25, 9), box(-5, -5, 2, 2), box(100, 100, 101, 101), box(1, 1, 9, 30),
	}
	for _, a := range boxes {
		for _, b := range boxes {
			v := IoU(a, b)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestClipRect(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 80)

	assert.Equal(t, image.Rect(0, 0, 50, 40), ClipRect(image.Rect(-10, -5, 50, 40), bounds))
	assert.Equal(t, image.Rect(60, 10, 100, 80), ClipRect(image.Rect(60, 10, 140, 120), bounds))
	assert.Equal(t, image.Rect(10, 10, 20, 20), ClipRect(image.Rect(10, 10, 20, 20), bounds))
	assert.True(t, ClipRect(image.Rect(200, 200, 300, 300), bounds).Empty())
}

func TestBoundingRect(t *testing.T) {
	points := []models.Point{{X: 10.7, Y: 20.2}, {X: 30.9, Y: 5.5}, {X: 12, Y: 40.99}}

	r := BoundingRect(points)
	assert.Equal(t, image.Rect(10, 5, 31, 41), r)
	assert.Equal(t, 21, r.Dx())
	assert.Equal(t, 36, r.Dy())

	assert.True(t, BoundingRect(nil).Empty())
}
