package animation

import (
	"github.com/Mazurkevichkv/k-means/internal/core"
	"gonum.org/v1/gonum/spatial/r3"
)

// Animator drives one tween per centroid from a single per-frame call.
// It is not safe for concurrent use.
type Animator struct {
	tweens  []*Tween
	speed   float64
	epsilon float64
}

// NewAnimator creates an idle animator.
func NewAnimator(speed, epsilon float64) *Animator {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Animator{speed: speed, epsilon: epsilon}
}

// Start replaces any running tweens with one tween per target.
// targets[i] belongs to centroid i.
func (a *Animator) Start(targets []r3.Vec) {
	a.tweens = make([]*Tween, len(targets))
	for i, target := range targets {
		a.tweens[i] = NewTween(target, a.speed, a.epsilon)
	}
}

// Step advances every unfinished tween by one frame, writing the new positions
// into centroids. It returns true while at least one tween is still moving.
func (a *Animator) Step(centroids []core.Centroid) bool {
	active := false
	for i, tw := range a.tweens {
		if tw == nil || tw.Done() || i >= len(centroids) {
			continue
		}
		next, done := tw.Advance(centroids[i].Position)
		centroids[i].Position = next
		if !done {
			active = true
		}
	}
	return active
}

// Active reports whether any tween has not settled yet.
func (a *Animator) Active() bool {
	for _, tw := range a.tweens {
		if tw != nil && !tw.Done() {
			return true
		}
	}
	return false
}

// Speed returns the distance covered per frame.
func (a *Animator) Speed() float64 { return a.speed }

// SetSpeed changes the speed of the running tweens and of future ones.
func (a *Animator) SetSpeed(speed float64) {
	a.speed = speed
	for _, tw := range a.tweens {
		if tw != nil {
			tw.SetSpeed(speed)
		}
	}
}

// Epsilon returns the settle distance.
func (a *Animator) Epsilon() float64 { return a.epsilon }

// Targets returns the frozen targets of the current relocation.
func (a *Animator) Targets() []r3.Vec {
	targets := make([]r3.Vec, len(a.tweens))
	for i, tw := range a.tweens {
		if tw != nil {
			targets[i] = tw.Target()
		}
	}
	return targets
}

// Reset drops all tweens.
func (a *Animator) Reset() { a.tweens = nil }
