package clustering

import (
	"fmt"
	"math"

	"github.com/Mazurkevichkv/k-means/internal/core"
	"gonum.org/v1/gonum/spatial/r3"
)

// Partition maps a centroid index to the indices of the points assigned to it.
// It always has one group per centroid; groups may be empty.
type Partition [][]int

// Sizes returns the number of members of every group.
func (p Partition) Sizes() []int {
	sizes := make([]int, len(p))
	for i, members := range p {
		sizes[i] = len(members)
	}
	return sizes
}

// Empty returns the number of groups without members.
func (p Partition) Empty() int {
	n := 0
	for _, members := range p {
		if len(members) == 0 {
			n++
		}
	}
	return n
}

// EmptyPolicy decides where the centroid of a cluster without members goes.
type EmptyPolicy string

const (
	// EmptyKeep leaves the centroid where it is.
	EmptyKeep EmptyPolicy = "keep"
	// EmptyReseed moves the centroid to a fresh random position.
	EmptyReseed EmptyPolicy = "reseed"
)

// ParseEmptyPolicy validates a policy name.
func ParseEmptyPolicy(s string) (EmptyPolicy, error) {
	switch EmptyPolicy(s) {
	case EmptyKeep, EmptyReseed:
		return EmptyPolicy(s), nil
	case "":
		return EmptyKeep, nil
	default:
		return "", fmt.Errorf("unknown empty cluster policy %q (supported: keep, reseed)", s)
	}
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// Nearest returns the index of the centroid closest to p.
// Centroids are scanned in index order and only a strictly smaller distance
// replaces the current best, so ties go to the lowest index.
// It returns core.Unassigned when there are no centroids.
func Nearest(p r3.Vec, centroids []core.Centroid) int {
	nearest := core.Unassigned
	minDistance := math.Inf(1)

	for i, c := range centroids {
		if d := Distance(p, c.Position); d < minDistance {
			minDistance = d
			nearest = i
		}
	}

	return nearest
}

// Assign runs the assignment half of a Lloyd iteration. Every point is moved to
// the group of its nearest centroid and takes that centroid's color.
func Assign(points []core.Point, centroids []core.Centroid) Partition {
	partition := make(Partition, len(centroids))
	for i := range partition {
		partition[i] = []int{}
	}
	if len(centroids) == 0 {
		return partition
	}

	for i := range points {
		k := Nearest(points[i].Position, centroids)
		points[i].Cluster = k
		points[i].Color = centroids[k].Color
		partition[k] = append(partition[k], i)
	}

	return partition
}

// PartitionOf groups points by their Cluster field into k groups.
// Unassigned points and out-of-range clusters are left out.
func PartitionOf(points []core.Point, k int) Partition {
	partition := make(Partition, k)
	for i := range partition {
		partition[i] = []int{}
	}
	for i, p := range points {
		if p.Cluster >= 0 && p.Cluster < k {
			partition[p.Cluster] = append(partition[p.Cluster], i)
		}
	}
	return partition
}

// Mean returns the componentwise mean of the member positions.
// ok is false for an empty member list.
func Mean(points []core.Point, members []int) (mean r3.Vec, ok bool) {
	if len(members) == 0 {
		return r3.Vec{}, false
	}
	for _, idx := range members {
		mean = r3.Add(mean, points[idx].Position)
	}
	return r3.Scale(1/float64(len(members)), mean), true
}

// Targets computes where every centroid should move to after an assignment.
// Non-empty clusters target their mean; empty clusters follow policy.
// reseed is only called for EmptyReseed and may be nil otherwise.
func Targets(
	points []core.Point,
	partition Partition,
	centroids []core.Centroid,
	policy EmptyPolicy,
	reseed func() r3.Vec,
) []r3.Vec {
	targets := make([]r3.Vec, len(centroids))

	for i, c := range centroids {
		var members []int
		if i < len(partition) {
			members = partition[i]
		}

		if mean, ok := Mean(points, members); ok {
			targets[i] = mean
			continue
		}

		if policy == EmptyReseed && reseed != nil {
			targets[i] = reseed()
		} else {
			targets[i] = c.Position
		}
	}

	return targets
}

// Inertia is the sum of squared distances from every assigned point to its centroid.
func Inertia(points []core.Point, centroids []core.Centroid) float64 {
	var sum float64
	for _, p := range points {
		if p.Cluster < 0 || p.Cluster >= len(centroids) {
			continue
		}
		sum += r3.Norm2(r3.Sub(p.Position, centroids[p.Cluster].Position))
	}
	return sum
}

// Changes counts points whose group differs between two partitions of the same points.
// Every point of next counts as changed when prev is nil.
func Changes(prev, next Partition) int {
	owner := make(map[int]int)
	for k, members := range prev {
		for _, idx := range members {
			owner[idx] = k
		}
	}

	changed := 0
	for k, members := range next {
		for _, idx := range members {
			if was, ok := owner[idx]; !ok || was != k {
				changed++
			}
		}
	}
	return changed
}
