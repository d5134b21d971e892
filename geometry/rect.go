package geometry

import (
	"image"
	"math"

	"github.com/Tutortoise/face-quality-service/models"
)

// IoU returns the intersection over union of two boxes, 0 when they do not
// overlap or when either is degenerate.
func IoU(a, b models.BoundingBox) float64 {
	left := math.Max(a.XMin, b.XMin)
	top := math.Max(a.YMin, b.YMin)
	right := math.Min(a.XMax, b.XMax)
	bottom := math.Min(a.YMax, b.YMax)

	if right < left || bottom < top {
		return 0.0
	}

	overlap := (right - left) * (bottom - top)
	union := a.Area() + b.Area() - overlap
	if union <= 0 {
		return 0.0
	}

	return overlap / union
}

// ClipRect clamps r so its origin is inside bounds and its extent does not
// run past the bounds width and height.
func ClipRect(r, bounds image.Rectangle) image.Rectangle {
	if r.Min.X < bounds.Min.X {
		r.Min.X = bounds.Min.X
	}
	if r.Min.Y < bounds.Min.Y {
		r.Min.Y = bounds.Min.Y
	}
	if r.Max.X > bounds.Max.X {
		r.Max.X = bounds.Max.X
	}
	if r.Max.Y > bounds.Max.Y {
		r.Max.Y = bounds.Max.Y
	}
	if r.Empty() {
		return image.Rectangle{}
	}
	return r
}

// BoundingRect returns the smallest integer rectangle holding every point.
// Coordinates are truncated first and the extent is inclusive of both ends.
func BoundingRect(points []models.Point) image.Rectangle {
	if len(points) == 0 {
		return image.Rectangle{}
	}

	minX, minY := int(points[0].X), int(points[0].Y)
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		x, y := int(p.X), int(p.Y)
		minX = min(minX, x)
		minY = min(minY, y)
		maxX = max(maxX, x)
		maxY = max(maxY, y)
	}

	return image.Rect(minX, minY, maxX+1, maxY+1)
}
