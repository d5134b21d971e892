package detections

import (
	"testing"

	"github.com/Tutortoise/face-quality-service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func det(x0, y0, x1, y1, score float64) models.Detection {
	return models.Detection{
		Box:   models.BoundingBox{XMin: x0, YMin: y0, XMax: x1, YMax: y1},
		Score: score,
	}
}

func TestClusterDetectionsMergesOverlaps(t *testing.T) {
	dets := []models.Detection{
		det(100, 100, 200, 200, 0.7),
		det(102, 98, 203, 201, 0.9),
		det(98, 101, 199, 204, 0.8),
		det(500, 500, 600, 600, 0.6),
		det(503, 502, 601, 598, 0.65),
	}

	merged := clusterDetections(dets)
	require.Len(t, merged, 2)

	assert.Equal(t, 0.9, merged[0].Score)
	assert.Equal(t, models.BoundingBox{XMin: 98, YMin: 98, XMax: 203, YMax: 204}, merged[0].Box)

	assert.Equal(t, 0.65, merged[1].Score)
	assert.Equal(t, models.BoundingBox{XMin: 500, YMin: 500, XMax: 601, YMax: 600}, merged[1].Box)
}

func TestClusterDetectionsKeepsSingletons(t *testing.T) {
	dets := []models.Detection{
		det(0, 0, 50, 50, 0.6),
		det(300, 300, 360, 360, 0.8),
	}

	merged := clusterDetections(dets)
	require.Len(t, merged, 2)
	assert.Equal(t, 0.8, merged[0].Score)
	assert.Equal(t, 0.6, merged[1].Score)
}

func TestClusterDetectionsEmpty(t *testing.T) {
	assert.Nil(t, clusterDetections(nil))
}

func TestMergeDetectionsKeepsPoseOfBest(t *testing.T) {
	a := det(0, 0, 10, 10, 0.5)
	b := det(2, 2, 12, 12, 0.9)
	b.PoseIndex = models.PoseFrontRotateLeft

	m := mergeDetections([]models.Detection{a, b})
	assert.Equal(t, 0.9, m.Score)
	assert.Equal(t, models.PoseFrontRotateLeft, m.PoseIndex)
	assert.Equal(t, models.BoundingBox{XMin: 0, YMin: 0, XMax: 12, YMax: 12}, m.Box)
}

func TestSuppressOverlaps(t *testing.T) {
	dets := []models.Detection{
		det(0, 0, 100, 100, 0.5),
		det(5, 5, 105, 105, 0.9),
		det(300, 300, 400, 400, 0.7),
	}

	kept := suppressOverlaps(dets, 0.2)
	require.Len(t, kept, 2)
	assert.Equal(t, 0.9, kept[0].Score)
	assert.Equal(t, 0.7, kept[1].Score)
}

func TestSuppressOverlapsKeepsDistinctPoses(t *testing.T) {
	front := det(0, 0, 100, 100, 8)
	rotated := det(200, 0, 300, 100, 12)
	rotated.PoseIndex = models.PoseFrontRotateRight

	kept := suppressOverlaps([]models.Detection{front, rotated}, 0.2)
	require.Len(t, kept, 2)
	assert.Equal(t, models.PoseFrontRotateRight, kept[0].PoseIndex)
	assert.Equal(t, models.PoseFront, kept[1].PoseIndex)
}
