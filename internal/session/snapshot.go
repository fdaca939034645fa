package session

import (
	"github.com/Mazurkevichkv/k-means/internal/clustering"
	"github.com/Mazurkevichkv/k-means/internal/core"
	"gonum.org/v1/gonum/spatial/r3"
)

// Snapshot is a copy of the session state for render layers.
// Mutating it never affects the session.
type Snapshot struct {
	ID         string
	Frame      int64
	State      State
	Auto       bool
	Speed      float64
	Iteration  int
	Iterations int
	Remaining  int
	Bounds     core.Bounds
	Points     []core.Point
	Centroids  []core.Centroid
	Targets    []r3.Vec // Frozen relocation targets while animating
	History    []IterationStats
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:         s.id,
		Frame:      s.frame,
		State:      s.state,
		Auto:       s.opts.Auto,
		Speed:      s.opts.Speed,
		Iteration:  s.Iteration(),
		Iterations: s.opts.Iterations,
		Remaining:  s.remaining,
		Bounds:     s.opts.Bounds,
		Points:     append([]core.Point(nil), s.points...),
		Centroids:  append([]core.Centroid(nil), s.centroids...),
		History:    make([]IterationStats, len(s.history)),
	}
	for i, h := range s.history {
		h.Sizes = append([]int(nil), h.Sizes...)
		snap.History[i] = h
	}
	if s.state == StateAnimating {
		snap.Targets = s.animator.Targets()
	}
	return snap
}

// ClusterSizes counts the points of every centroid in the snapshot.
func (snap Snapshot) ClusterSizes() []int {
	sizes := make([]int, len(snap.Centroids))
	for _, p := range snap.Points {
		if p.Cluster >= 0 && p.Cluster < len(sizes) {
			sizes[p.Cluster]++
		}
	}
	return sizes
}

// LastStats returns the stats of the most recent step, if any.
func (snap Snapshot) LastStats() (IterationStats, bool) {
	if len(snap.History) == 0 {
		return IterationStats{}, false
	}
	return snap.History[len(snap.History)-1], true
}

// Silhouette scores the separation of the current clusters.
// It is quadratic in the number of points, so callers run it once per result.
func (snap Snapshot) Silhouette() clustering.SilhouetteAnalysis {
	return clustering.Silhouette(snap.Points, clustering.PartitionOf(snap.Points, len(snap.Centroids)))
}
