package clustering

import (
	"math"

	"github.com/Mazurkevichkv/k-means/internal/core"
)

// SilhouetteScore calculates the silhouette score for a single point
// Returns a score between -1 and 1:
//
//	-1: Point likely in wrong cluster
//	 0: Point on the border between clusters
//	+1: Point well matched to its cluster
func SilhouetteScore(points []core.Point, partition Partition, idx int) float64 {
	if idx < 0 || idx >= len(points) {
		return 0
	}
	own := points[idx].Cluster
	if own < 0 || own >= len(partition) || len(partition[own]) < 2 {
		return 0 // Singleton or unassigned
	}

	a := meanDistance(points, partition[own], idx)

	b := math.MaxFloat64
	for c, members := range partition {
		if c == own || len(members) == 0 {
			continue
		}
		if d := meanDistance(points, members, idx); d < b {
			b = d
		}
	}
	if b == math.MaxFloat64 {
		return 0 // No other clusters
	}

	switch {
	case a < b:
		return 1 - a/b
	case a > b:
		return b/a - 1
	}
	return 0
}

// meanDistance is the mean distance from points[idx] to members, skipping idx itself.
func meanDistance(points []core.Point, members []int, idx int) float64 {
	sum := 0.0
	count := 0
	for _, m := range members {
		if m == idx {
			continue
		}
		sum += Distance(points[idx].Position, points[m].Position)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// SilhouetteAnalysis summarizes how well separated the clusters are
type SilhouetteAnalysis struct {
	OverallScore  float64   `json:"overall"`  // Average across all points
	ClusterScores []float64 `json:"clusters"` // Per-cluster average, 0 for empty clusters
	Quality       string    `json:"quality"`  // Interpretation: Excellent/Good/Fair/Poor
}

// Silhouette performs silhouette analysis of the current assignment.
// It is quadratic in the number of points.
func Silhouette(points []core.Point, partition Partition) SilhouetteAnalysis {
	analysis := SilhouetteAnalysis{ClusterScores: make([]float64, len(partition))}
	if len(points) == 0 {
		analysis.Quality = interpretSilhouetteScore(0)
		return analysis
	}

	total := 0.0
	for c, members := range partition {
		sum := 0.0
		for _, m := range members {
			sum += SilhouetteScore(points, partition, m)
		}
		if len(members) > 0 {
			analysis.ClusterScores[c] = sum / float64(len(members))
		}
		total += sum
	}

	analysis.OverallScore = total / float64(len(points))
	analysis.Quality = interpretSilhouetteScore(analysis.OverallScore)
	return analysis
}

// interpretSilhouetteScore provides human-readable interpretation
func interpretSilhouetteScore(score float64) string {
	switch {
	case score >= 0.71:
		return "Excellent - Strong cluster structure"
	case score >= 0.51:
		return "Good - Reasonable cluster structure"
	case score >= 0.26:
		return "Fair - Weak cluster structure"
	case score >= 0.0:
		return "Poor - No substantial cluster structure"
	default:
		return "Very Poor - Artificial/forced clustering"
	}
}
