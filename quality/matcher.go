package quality

import (
	"context"
	"image"

	"github.com/Tutortoise/face-quality-service/geometry"
	"github.com/Tutortoise/face-quality-service/models"
)

// FindBestMatch runs detector over img and returns the detection overlapping
// box the most. A detection is returned even when no detection overlaps box
// at all; ok is false only when the detector found nothing. On ties the
// earlier detection wins.
func FindBestMatch(ctx context.Context, detector FaceDetector, img image.Image, box models.BoundingBox) (models.Detection, bool, error) {
	dets, err := detector.Detect(ctx, img)
	if err != nil {
		return models.Detection{}, false, err
	}

	best := -1
	highest := -1.0
	for i, d := range dets {
		if iou := geometry.IoU(box, d.Box); iou > highest {
			highest = iou
			best = i
		}
	}

	if best < 0 {
		return models.Detection{}, false, nil
	}
	return dets[best], true, nil
}
