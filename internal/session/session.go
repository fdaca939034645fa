package session

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/Mazurkevichkv/k-means/internal/animation"
	"github.com/Mazurkevichkv/k-means/internal/clustering"
	"github.com/Mazurkevichkv/k-means/internal/core"
	"github.com/Mazurkevichkv/k-means/internal/logger"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// State is the phase of the iteration driver.
type State int

const (
	// StateIdle waits for the next trigger.
	StateIdle State = iota
	// StateAnimating has at least one centroid moving towards its target.
	StateAnimating
	// StateFinished has used up the iteration budget and has nothing left to animate.
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnimating:
		return "animating"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a session.
type Options struct {
	Clusters    int                    // Number of centroids
	Elements    int                    // Number of points
	Iterations  int                    // Clustering step budget
	Auto        bool                   // Trigger the next step when the previous animation settles
	Speed       float64                // Scene units a centroid covers per frame
	Epsilon     float64                // Distance under which a relocation is finished
	Bounds      core.Bounds            // Spawn box
	EmptyPolicy clustering.EmptyPolicy // What empty clusters do with their centroid
	Seed        int64                  // Random seed, 0 picks one from the clock
	StartDelay  int                    // Frames before the first step fires on its own, negative disables
}

// DefaultOptions returns the settings of the classic demo.
func DefaultOptions() Options {
	return Options{
		Clusters:    10,
		Elements:    500,
		Iterations:  30,
		Speed:       5,
		Epsilon:     animation.DefaultEpsilon,
		Bounds:      core.Bounds{Width: 1200, Height: 800, Depth: 1000},
		EmptyPolicy: clustering.EmptyKeep,
		StartDelay:  30,
	}
}

// Validate checks that the options describe a scene that can be built.
// More clusters than elements is allowed, the extra clusters stay empty.
func (o Options) Validate() error {
	switch {
	case o.Clusters < 1:
		return fmt.Errorf("%w: clusters must be at least 1, got %d", ErrInvalidOptions, o.Clusters)
	case o.Elements < 1:
		return fmt.Errorf("%w: elements must be at least 1, got %d", ErrInvalidOptions, o.Elements)
	case o.Iterations < 0:
		return fmt.Errorf("%w: iterations must not be negative, got %d", ErrInvalidOptions, o.Iterations)
	case o.Speed <= 0:
		return fmt.Errorf("%w: speed must be positive, got %g", ErrInvalidOptions, o.Speed)
	case o.Epsilon <= 0:
		return fmt.Errorf("%w: epsilon must be positive, got %g", ErrInvalidOptions, o.Epsilon)
	case o.Bounds.Width <= 0 || o.Bounds.Height <= 0 || o.Bounds.Depth <= 0:
		return fmt.Errorf("%w: scene bounds must be positive, got %+v", ErrInvalidOptions, o.Bounds)
	}
	if _, err := clustering.ParseEmptyPolicy(string(o.EmptyPolicy)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// IterationStats describes one clustering step.
type IterationStats struct {
	Iteration    int     `json:"iteration"`     // 1-based step number
	Frame        int64   `json:"frame"`         // Frame the step fired on
	Changed      int     `json:"changed"`       // Points that switched cluster
	Inertia      float64 `json:"inertia"`       // Sum of squared distances to the old centroids
	Sizes        []int   `json:"sizes"`         // Members per cluster
	Empty        int     `json:"empty"`         // Clusters without members
	SettleFrames int     `json:"settle_frames"` // Frames until every centroid settled, 0 while moving
}

// Session holds the whole state of one visualization run: the scene, the current
// partition, the remaining iteration budget and the centroid animations.
// It is not safe for concurrent use; one goroutine drives it through Frame.
type Session struct {
	id        string
	opts      Options
	seed      int64
	restarts  int
	rng       *rand.Rand
	points    []core.Point
	centroids []core.Centroid
	partition clustering.Partition
	remaining int
	state     State
	started   bool
	animator  *animation.Animator
	frame     int64
	history   []IterationStats
	log       *slog.Logger
}

// New validates opts and bootstraps a scene with random points and centroids.
func New(opts Options) (*Session, error) {
	if opts.EmptyPolicy == "" {
		opts.EmptyPolicy = clustering.EmptyKeep
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Session{
		opts: opts,
		seed: seed,
		log:  logger.Get(),
	}
	s.bootstrap()
	return s, nil
}

// bootstrap creates a fresh scene. A fixed seed stays reproducible across restarts.
func (s *Session) bootstrap() {
	s.id = uuid.NewString()
	s.rng = rand.New(rand.NewSource(s.seed + int64(s.restarts)))

	s.points = make([]core.Point, s.opts.Elements)
	for i := range s.points {
		s.points[i] = core.Point{
			ID:       i,
			Position: s.opts.Bounds.RandomPosition(s.rng),
			Color:    core.NeutralColor,
			Cluster:  core.Unassigned,
		}
	}

	colors := core.DistinctColors(s.rng, s.opts.Clusters)
	s.centroids = make([]core.Centroid, s.opts.Clusters)
	for i := range s.centroids {
		s.centroids[i] = core.Centroid{
			ID:       i,
			Position: s.opts.Bounds.RandomPosition(s.rng),
			Color:    colors[i],
		}
	}

	s.partition = nil
	s.remaining = s.opts.Iterations
	s.started = false
	s.frame = 0
	s.history = nil
	s.animator = animation.NewAnimator(s.opts.Speed, s.opts.Epsilon)
	s.state = StateIdle
	if s.remaining == 0 {
		s.state = StateFinished
	}

	s.log.Info("Scene created",
		"session", s.id,
		"clusters", s.opts.Clusters,
		"elements", s.opts.Elements,
		"iterations", s.opts.Iterations,
		"auto", s.opts.Auto)
	if s.opts.Clusters > s.opts.Elements {
		s.log.Warn("More clusters than elements, some clusters will stay empty",
			"session", s.id, "clusters", s.opts.Clusters, "elements", s.opts.Elements)
	}
}

// Next triggers one clustering step by hand.
func (s *Session) Next() error {
	if s.state == StateAnimating {
		return ErrAnimating
	}
	if s.remaining <= 0 {
		return ErrExhausted
	}
	s.iterate()
	return nil
}

// iterate runs one clustering step and starts the relocation animation.
// Callers guarantee remaining > 0.
func (s *Session) iterate() {
	s.started = true
	s.remaining--

	prev := s.partition
	s.partition = clustering.Assign(s.points, s.centroids)

	var reseed func() r3.Vec
	if s.opts.EmptyPolicy == clustering.EmptyReseed {
		reseed = func() r3.Vec { return s.opts.Bounds.RandomPosition(s.rng) }
	}
	targets := clustering.Targets(s.points, s.partition, s.centroids, s.opts.EmptyPolicy, reseed)
	s.animator.Start(targets)
	s.state = StateAnimating

	stats := IterationStats{
		Iteration: s.opts.Iterations - s.remaining,
		Frame:     s.frame,
		Changed:   clustering.Changes(prev, s.partition),
		Inertia:   clustering.Inertia(s.points, s.centroids),
		Sizes:     s.partition.Sizes(),
		Empty:     s.partition.Empty(),
	}
	s.history = append(s.history, stats)

	s.log.Debug("Clustering step",
		"session", s.id,
		"iteration", stats.Iteration,
		"remaining", s.remaining,
		"changed", stats.Changed,
		"inertia", stats.Inertia,
		"empty", stats.Empty)
}

// Frame advances the session by one display frame. Centroid animations move one
// step; when the last one settles the session goes idle and, in automatic mode,
// fires exactly one next clustering step.
func (s *Session) Frame() {
	s.frame++

	if s.state == StateAnimating && !s.animator.Step(s.centroids) {
		s.settle()
	}

	if s.state != StateIdle || s.remaining <= 0 {
		return
	}

	switch {
	case !s.started && s.opts.StartDelay >= 0 && s.frame >= int64(s.opts.StartDelay):
		s.iterate()
	case s.started && s.opts.Auto:
		s.iterate()
	}
}

func (s *Session) settle() {
	if n := len(s.history); n > 0 {
		last := &s.history[n-1]
		last.SettleFrames = int(s.frame - last.Frame)
	}

	if s.remaining > 0 {
		s.state = StateIdle
		return
	}

	s.state = StateFinished
	s.log.Info("Clustering finished",
		"session", s.id,
		"iterations", s.opts.Iterations,
		"frames", s.frame,
		"inertia", clustering.Inertia(s.points, s.centroids))
}

// RunToCompletion drives frames until the iteration budget is used up and the last
// animation settled. Idle frames trigger the next step by hand unless automatic
// mode is already chaining steps.
// It returns the number of frames driven.
func (s *Session) RunToCompletion(maxFrames int) (int, error) {
	for n := 0; n < maxFrames; n++ {
		if s.state == StateFinished {
			return n, nil
		}
		if s.state == StateIdle && (!s.opts.Auto || !s.started) {
			if err := s.Next(); err != nil {
				return n, err
			}
		}
		s.Frame()
	}
	if s.state == StateFinished {
		return maxFrames, nil
	}
	return maxFrames, fmt.Errorf("session %s did not finish within %d frames (%d iterations left)",
		s.id, maxFrames, s.remaining)
}

// Restart throws the scene away and bootstraps a new one with the same options.
func (s *Session) Restart() {
	s.restarts++
	s.bootstrap()
}

// SetAuto switches between manual and automatic triggering.
func (s *Session) SetAuto(auto bool) {
	s.opts.Auto = auto
	s.log.Debug("Mode changed", "session", s.id, "auto", auto)
}

// SetSpeed changes the animation speed, including running animations.
func (s *Session) SetSpeed(speed float64) error {
	if speed <= 0 {
		return fmt.Errorf("%w: speed must be positive, got %g", ErrInvalidOptions, speed)
	}
	s.opts.Speed = speed
	s.animator.SetSpeed(speed)
	return nil
}

// ID returns the identifier of the current scene. It changes on Restart.
func (s *Session) ID() string { return s.id }

// State returns the driver phase.
func (s *Session) State() State { return s.state }

// Remaining returns the unused iteration budget.
func (s *Session) Remaining() int { return s.remaining }

// Iteration returns the number of clustering steps performed so far.
func (s *Session) Iteration() int { return s.opts.Iterations - s.remaining }

// Auto reports whether automatic mode is on.
func (s *Session) Auto() bool { return s.opts.Auto }

// Speed returns the animation speed.
func (s *Session) Speed() float64 { return s.opts.Speed }

// Options returns the options the session runs with, including SetAuto and SetSpeed changes.
func (s *Session) Options() Options { return s.opts }
