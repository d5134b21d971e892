package quality

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Equalize converts img to grayscale and spreads its histogram over the full
// 0-255 range. The result is opaque with equal R, G and B.
func Equalize(img image.Image) *image.NRGBA {
	gray := imaging.Grayscale(img)
	if gray.Bounds().Empty() {
		return gray
	}

	lut := equalizationLUT(histogram(gray))
	return imaging.AdjustFunc(gray, func(c color.NRGBA) color.NRGBA {
		v := lut[c.R]
		return color.NRGBA{R: v, G: v, B: v, A: 255}
	})
}

func histogram(gray *image.NRGBA) [256]int {
	var hist [256]int
	b := gray.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			hist[row[x]]++
		}
	}
	return hist
}

// equalizationLUT maps the first occupied level to 0 and the rest by their
// cumulative share of the remaining pixels. A single-level image is left as is.
func equalizationLUT(hist [256]int) [256]uint8 {
	var lut [256]uint8

	total := 0
	for _, n := range hist {
		total += n
	}

	first := 0
	for first < 255 && hist[first] == 0 {
		first++
	}

	if hist[first] == total {
		for i := range lut {
			lut[i] = uint8(first)
		}
		return lut
	}

	scale := 255.0 / float64(total-hist[first])
	sum := 0
	for i := first + 1; i < 256; i++ {
		sum += hist[i]
		v := math.Round(float64(sum) * scale)
		lut[i] = uint8(min(255, max(0, v)))
	}
	return lut
}
