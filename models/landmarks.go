package models

import "fmt"

// LandmarkCount is the size of the 68-point landmark scheme.
const LandmarkCount = 68

type Point struct {
	X, Y float64
}

// LandmarkSet is an ordered 68-point face shape.
type LandmarkSet []Point

// Index ranges of the landmark groups, half-open.
var (
	LeftEyeRange  = [2]int{36, 42}
	RightEyeRange = [2]int{42, 48}
	NoseRange     = [2]int{27, 36}
	MouthRange    = [2]int{48, 68}
)

func (l LandmarkSet) Validate() error {
	if len(l) != LandmarkCount {
		return fmt.Errorf("expected %d landmarks, got %d", LandmarkCount, len(l))
	}
	return nil
}

// Mean returns the centroid of the points in the half-open range r.
func (l LandmarkSet) Mean(r [2]int) Point {
	var sx, sy float64
	for _, p := range l[r[0]:r[1]] {
		sx += p.X
		sy += p.Y
	}
	n := float64(r[1] - r[0])
	return Point{X: sx / n, Y: sy / n}
}

func (l LandmarkSet) LeftEye() Point {
	return l.Mean(LeftEyeRange)
}

func (l LandmarkSet) RightEye() Point {
	return l.Mean(RightEyeRange)
}

func (l LandmarkSet) Nose() Point {
	return l.Mean(NoseRange)
}

func (l LandmarkSet) Mouth() Point {
	return l.Mean(MouthRange)
}
