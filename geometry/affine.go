package geometry

import (
	"image"
	"image/color"
	"math"

	"github.com/Tutortoise/face-quality-service/models"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Affine is a 2x3 matrix mapping source to destination coordinates:
//
//	x' = A*x + B*y + C
//	y' = D*x + E*y + F
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Identity is the transform that leaves every point in place.
var Identity = Affine{A: 1, E: 1}

// RotationMatrix2D builds a rotation of angleDeg degrees about center with a
// uniform scale. Positive angles rotate counter-clockwise as seen on screen.
func RotationMatrix2D(center models.Point, angleDeg, scale float64) Affine {
	theta := angleDeg * math.Pi / 180
	alpha := scale * math.Cos(theta)
	beta := scale * math.Sin(theta)

	return Affine{
		A: alpha,
		B: beta,
		C: (1-alpha)*center.X - beta*center.Y,
		D: -beta,
		E: alpha,
		F: beta*center.X + (1-alpha)*center.Y,
	}
}

func (m Affine) Apply(p models.Point) models.Point {
	return models.Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// ApplyAll transforms every point.
func (m Affine) ApplyAll(points []models.Point) []models.Point {
	out := make([]models.Point, len(points))
	for i, p := range points {
		out[i] = m.Apply(p)
	}
	return out
}

// Angle returns the rotation encoded by m in degrees.
func (m Affine) Angle() float64 {
	return math.Atan2(m.B, m.A) * 180 / math.Pi
}

func (m Affine) Aff3() f64.Aff3 {
	return f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
}

// Warp resamples src through m with bilinear interpolation. The result has the
// same size as src; areas mapped from outside the source are opaque black.
func Warp(src image.Image, m Affine) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	// m is relative to the image origin with pixel centres on integer
	// coordinates; draw puts them at +0.5 and works in src's own coordinates.
	toCentre := Affine{A: 1, C: float64(-b.Min.X) - 0.5, E: 1, F: float64(-b.Min.Y) - 0.5}
	fromCentre := Affine{A: 1, C: 0.5, E: 1, F: 0.5}
	s2d := fromCentre.compose(m.compose(toCentre))
	draw.BiLinear.Transform(dst, s2d.Aff3(), src, b, draw.Over, nil)

	return dst
}

// compose returns the transform applying n first, then m.
func (m Affine) compose(n Affine) Affine {
	return Affine{
		A: m.A*n.A + m.B*n.D,
		B: m.A*n.B + m.B*n.E,
		C: m.A*n.C + m.B*n.F + m.C,
		D: m.D*n.A + m.E*n.D,
		E: m.D*n.B + m.E*n.E,
		F: m.D*n.C + m.E*n.F + m.F,
	}
}
