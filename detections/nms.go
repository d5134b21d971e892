package detections

import (
	"github.com/Tutortoise/face-quality-service/geometry"
	"github.com/Tutortoise/face-quality-service/models"
)

// suppressOverlaps performs non-maximum suppression: of any two detections
// overlapping by more than iouThreshold only the higher scoring one is kept.
// The result is sorted by descending score.
func suppressOverlaps(dets []models.Detection, iouThreshold float64) []models.Detection {
	if len(dets) == 0 {
		return dets
	}

	sortDetectionsByScore(dets)

	keep := make([]bool, len(dets))
	for i := range keep {
		keep[i] = true
	}

	for i := 0; i < len(dets); i++ {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(dets); j++ {
			if !keep[j] {
				continue
			}
			if geometry.IoU(dets[i].Box, dets[j].Box) > iouThreshold {
				keep[j] = false
			}
		}
	}

	result := make([]models.Detection, 0, len(dets))
	for i, det := range dets {
		if keep[i] {
			result = append(result, det)
		}
	}
	return result
}
