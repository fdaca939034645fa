package animation

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultEpsilon is the distance under which a relocation counts as finished.
const DefaultEpsilon = 10.0

// Tween moves one position towards a target frozen at creation.
// Every Advance covers at most speed units, never overshooting the target.
type Tween struct {
	target  r3.Vec
	speed   float64
	epsilon float64
	frames  int
	done    bool
}

// NewTween creates a tween towards target. A non-positive epsilon falls back to DefaultEpsilon.
func NewTween(target r3.Vec, speed, epsilon float64) *Tween {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Tween{target: target, speed: speed, epsilon: epsilon}
}

// Target returns the frozen destination.
func (t *Tween) Target() r3.Vec { return t.target }

// Done reports whether the tween has settled.
func (t *Tween) Done() bool { return t.done }

// Frames returns how many frames moved the position.
func (t *Tween) Frames() int { return t.frames }

// SetSpeed changes the distance covered per frame from the next Advance on.
func (t *Tween) SetSpeed(speed float64) { t.speed = speed }

// Advance computes the position one frame after pos. The distance to the target is
// measured from the live position each frame. Once it drops below epsilon the tween
// is done and pos is returned unchanged.
func (t *Tween) Advance(pos r3.Vec) (r3.Vec, bool) {
	if t.done {
		return pos, true
	}

	delta := r3.Sub(t.target, pos)
	dist := r3.Norm(delta)
	if dist < t.epsilon || math.IsNaN(dist) {
		t.done = true
		return pos, true
	}

	// speed <= 0 would never arrive; treat it as an instant jump.
	steps := 1.0
	if t.speed > 0 {
		steps = math.Max(dist/t.speed, 1)
	}

	t.frames++
	return r3.Add(pos, r3.Scale(1/steps, delta)), false
}

// MaxFrames bounds the number of frames a tween needs to cover dist at speed.
func MaxFrames(dist, speed float64) int {
	if speed <= 0 {
		return 1
	}
	return int(math.Ceil(dist/speed)) + 1
}
