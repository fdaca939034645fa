package core

import (
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// Unassigned is the cluster index of a point that has not been through a clustering step yet.
const Unassigned = -1

// NeutralColor is the color of points before their first assignment.
var NeutralColor = colorful.Color{R: 0.5, G: 0.5, B: 0.5}

// Point is a data element of the scene.
type Point struct {
	ID       int            // Stable index of the point in the session
	Position r3.Vec         // Position in scene coordinates
	Color    colorful.Color // Display color, follows the assigned centroid
	Cluster  int            // Index of the assigned centroid, Unassigned before the first step
}

// Centroid is the representative of one cluster.
type Centroid struct {
	ID       int            // Stable index of the centroid in the session
	Position r3.Vec         // Current, possibly mid-animation, position
	Color    colorful.Color // Fixed at creation
}

// Bounds describes the box points and centroids are spawned in.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// RandomPosition returns a uniform random position inside the box.
// The box is centered on the origin in x and y and shifted towards the viewer in z.
func (b Bounds) RandomPosition(rng *rand.Rand) r3.Vec {
	return r3.Vec{
		X: rng.Float64()*b.Width - b.Width/2,
		Y: rng.Float64()*b.Height - b.Height/2,
		Z: rng.Float64()*b.Depth - b.Depth/3*2,
	}
}

// Contains reports whether v lies inside the spawn box.
func (b Bounds) Contains(v r3.Vec) bool {
	return v.X >= -b.Width/2 && v.X < b.Width/2 &&
		v.Y >= -b.Height/2 && v.Y < b.Height/2 &&
		v.Z >= -b.Depth/3*2 && v.Z < b.Depth/3
}

// minColorDistance is the smallest RGB distance accepted between two centroid colors.
const minColorDistance = 0.15

// maxColorAttempts bounds the rejection sampling in DistinctColors.
const maxColorAttempts = 64

// DistinctColors returns n random colors, rejecting candidates that are too close
// to a color already chosen. After maxColorAttempts the last candidate is accepted
// so large n still terminates.
func DistinctColors(rng *rand.Rand, n int) []colorful.Color {
	colors := make([]colorful.Color, 0, n)
	for len(colors) < n {
		var candidate colorful.Color
		for attempt := 0; attempt < maxColorAttempts; attempt++ {
			candidate = colorful.Color{R: rng.Float64(), G: rng.Float64(), B: rng.Float64()}
			if !tooClose(candidate, colors) {
				break
			}
		}
		colors = append(colors, candidate)
	}
	return colors
}

func tooClose(c colorful.Color, others []colorful.Color) bool {
	for _, o := range others {
		if c.DistanceRgb(o) < minColorDistance {
			return true
		}
	}
	return false
}
