package detections

import (
	"math"
	"sort"

	"github.com/Tutortoise/face-quality-service/geometry"
	"github.com/Tutortoise/face-quality-service/models"
)

const (
	DefaultClusterSize = 50.0
	IouThreshold       = 0.45
)

// clusterDetections merges the many overlapping raw predictions a YOLO head
// emits for one face. Each cluster becomes the union of its boxes carrying
// the best score of its members.
func clusterDetections(detections []models.Detection) []models.Detection {
	if len(detections) == 0 {
		return nil
	}

	medianSize := calculateMedianSize(detections)
	eps := math.Max(medianSize, DefaultClusterSize) * 0.5
	minPoints := 1
	if len(detections) > 3 {
		minPoints = 2
	}

	points := make([][]float64, len(detections))
	for i, det := range detections {
		points[i] = []float64{det.Box.XMin, det.Box.YMin, det.Box.XMax, det.Box.YMax}
	}

	clusters := dbscan(points, eps, minPoints)
	merged := processClusters(detections, clusters)
	sortDetectionsByScore(merged)
	return merged
}

func calculateMedianSize(detections []models.Detection) float64 {
	sizes := make([]float64, len(detections))
	for i, det := range detections {
		sizes[i] = math.Sqrt(det.Box.Width() * det.Box.Height())
	}

	sort.Float64s(sizes)
	if len(sizes) == 0 {
		return DefaultClusterSize
	}
	return sizes[len(sizes)/2]
}

func processClusters(detections []models.Detection, clusters []int) []models.Detection {
	clusterMap := make(map[int][]models.Detection)
	var ids []int
	var noise []models.Detection

	for i, cluster := range clusters {
		if cluster == -1 {
			noise = append(noise, detections[i])
			continue
		}
		if _, ok := clusterMap[cluster]; !ok {
			ids = append(ids, cluster)
		}
		clusterMap[cluster] = append(clusterMap[cluster], detections[i])
	}

	// Noise points overlapping an existing cluster join it; the rest stand alone.
	var final []models.Detection
	for _, det := range noise {
		merged := false
		for _, id := range ids {
			for _, existing := range clusterMap[id] {
				if geometry.IoU(det.Box, existing.Box) > IouThreshold {
					clusterMap[id] = append(clusterMap[id], det)
					merged = true
					break
				}
			}
			if merged {
				break
			}
		}
		if !merged {
			final = append(final, det)
		}
	}

	for _, id := range ids {
		final = append(final, mergeDetections(clusterMap[id]))
	}

	return final
}

func mergeDetections(dets []models.Detection) models.Detection {
	result := dets[0]
	for _, d := range dets[1:] {
		result.Box.XMin = math.Min(result.Box.XMin, d.Box.XMin)
		result.Box.YMin = math.Min(result.Box.YMin, d.Box.YMin)
		result.Box.XMax = math.Max(result.Box.XMax, d.Box.XMax)
		result.Box.YMax = math.Max(result.Box.YMax, d.Box.YMax)
		if d.Score > result.Score {
			result.Score = d.Score
			result.PoseIndex = d.PoseIndex
		}
	}
	return result
}

func dbscan(points [][]float64, eps float64, minPoints int) []int {
	n := len(points)
	clusters := make([]int, n)
	for i := range clusters {
		clusters[i] = -1 // noise until proven otherwise
	}

	currentCluster := 0
	for i := 0; i < n; i++ {
		if clusters[i] != -1 {
			continue
		}

		neighbors := getNeighbors(points, i, eps)
		if len(neighbors) < minPoints {
			continue
		}

		clusters[i] = currentCluster
		expandCluster(points, clusters, neighbors, currentCluster, eps, minPoints)
		currentCluster++
	}

	return clusters
}

func getNeighbors(points [][]float64, pointIdx int, eps float64) []int {
	var neighbors []int
	for i := range points {
		if distance(points[pointIdx], points[i]) <= eps {
			neighbors = append(neighbors, i)
		}
	}
	return neighbors
}

func expandCluster(points [][]float64, clusters []int, neighbors []int, cluster int, eps float64, minPoints int) {
	for i := 0; i < len(neighbors); i++ {
		pointIdx := neighbors[i]
		if clusters[pointIdx] == -1 {
			clusters[pointIdx] = cluster
			newNeighbors := getNeighbors(points, pointIdx, eps)
			if len(newNeighbors) >= minPoints {
				neighbors = append(neighbors, newNeighbors...)
			}
		}
	}
}

func distance(p1, p2 []float64) float64 {
	sum := 0.0
	for i := range p1 {
		diff := p1[i] - p2[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

func sortDetectionsByScore(detections []models.Detection) {
	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Score > detections[j].Score
	})
}
