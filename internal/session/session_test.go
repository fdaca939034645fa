package session

import (
	"errors"
	"math"
	"testing"

	"github.com/Mazurkevichkv/k-means/internal/clustering"
	"github.com/Mazurkevichkv/k-means/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Clusters = 4
	opts.Elements = 120
	opts.Iterations = 5
	opts.Speed = 250
	opts.Seed = 99
	opts.StartDelay = -1
	return opts
}

func newTestSession(t *testing.T, mutate func(*Options)) *Session {
	t.Helper()
	opts := testOptions()
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

// settle drives frames until the current animation is over.
func settle(t *testing.T, s *Session) {
	t.Helper()
	for i := 0; s.State() == StateAnimating; i++ {
		require.Less(t, i, 10000, "animation did not settle")
		s.Frame()
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Options)
	}{
		{name: "no clusters", mutate: func(o *Options) { o.Clusters = 0 }},
		{name: "no elements", mutate: func(o *Options) { o.Elements = 0 }},
		{name: "negative iterations", mutate: func(o *Options) { o.Iterations = -1 }},
		{name: "zero speed", mutate: func(o *Options) { o.Speed = 0 }},
		{name: "negative epsilon", mutate: func(o *Options) { o.Epsilon = -1 }},
		{name: "flat scene", mutate: func(o *Options) { o.Bounds.Depth = 0 }},
		{name: "unknown policy", mutate: func(o *Options) { o.EmptyPolicy = "teleport" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := testOptions()
			tc.mutate(&opts)
			_, err := New(opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidOptions))
		})
	}
}

func TestNew_BootstrapsScene(t *testing.T) {
	s := newTestSession(t, nil)
	snap := s.Snapshot()

	assert.NotEmpty(t, snap.ID)
	assert.Len(t, snap.Points, 120)
	assert.Len(t, snap.Centroids, 4)
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, 5, snap.Remaining)

	for _, p := range snap.Points {
		assert.True(t, snap.Bounds.Contains(p.Position))
		assert.Equal(t, core.Unassigned, p.Cluster)
		assert.Equal(t, core.NeutralColor, p.Color)
	}
	for i, c := range snap.Centroids {
		assert.Equal(t, i, c.ID)
		assert.True(t, snap.Bounds.Contains(c.Position))
	}
}

func TestNext_DecrementsCounterOncePerStep(t *testing.T) {
	s := newTestSession(t, nil)

	for want := 4; want >= 0; want-- {
		require.NoError(t, s.Next())
		assert.Equal(t, want, s.Remaining())
		assert.Equal(t, StateAnimating, s.State())
		settle(t, s)
	}

	assert.Equal(t, StateFinished, s.State())
	assert.Equal(t, 0, s.Remaining())
}

func TestNext_RejectedWhileAnimating(t *testing.T) {
	s := newTestSession(t, func(o *Options) { o.Speed = 1 })

	require.NoError(t, s.Next())
	require.Equal(t, StateAnimating, s.State())

	err := s.Next()
	assert.ErrorIs(t, err, ErrAnimating)
	assert.Equal(t, 4, s.Remaining(), "rejected trigger must not consume an iteration")
}

func TestNext_NoEffectsWhenExhausted(t *testing.T) {
	s := newTestSession(t, func(o *Options) { o.Iterations = 1 })

	require.NoError(t, s.Next())
	settle(t, s)
	require.Equal(t, StateFinished, s.State())

	before := s.Snapshot()
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, s.Next(), ErrExhausted)
		s.Frame()
	}
	after := s.Snapshot()

	assert.Equal(t, 0, after.Remaining)
	assert.Equal(t, before.Points, after.Points)
	assert.Equal(t, before.Centroids, after.Centroids)
	assert.Equal(t, before.History, after.History)
	assert.Equal(t, StateFinished, after.State)
}

func TestNew_ZeroIterationsIsFinished(t *testing.T) {
	s := newTestSession(t, func(o *Options) { o.Iterations = 0 })

	assert.Equal(t, StateFinished, s.State())
	assert.ErrorIs(t, s.Next(), ErrExhausted)
}

func TestFrame_AutoModeRunsWholeBudgetOnce(t *testing.T) {
	s := newTestSession(t, func(o *Options) {
		o.Auto = true
		o.Clusters = 8
		o.Iterations = 12
		o.StartDelay = 0
	})

	frames := 0
	for s.State() != StateFinished {
		s.Frame()
		frames++
		require.GreaterOrEqual(t, s.Remaining(), 0)
		require.Less(t, frames, 100000)
	}

	snap := s.Snapshot()
	require.Len(t, snap.History, 12, "every settle must trigger exactly one step")
	for i, h := range snap.History {
		assert.Equal(t, i+1, h.Iteration)
		assert.Positive(t, h.SettleFrames)
		if i > 0 {
			prev := snap.History[i-1]
			assert.Equal(t, prev.Frame+int64(prev.SettleFrames), h.Frame,
				"next step fires on the frame the previous animation settled")
		}
	}
}

func TestFrame_StartDelay(t *testing.T) {
	s := newTestSession(t, func(o *Options) { o.StartDelay = 3 })

	s.Frame()
	s.Frame()
	assert.Equal(t, 0, s.Iteration())

	s.Frame()
	assert.Equal(t, 1, s.Iteration())
	assert.Equal(t, StateAnimating, s.State())

	settle(t, s)
	for i := 0; i < 10; i++ {
		s.Frame()
	}
	assert.Equal(t, 1, s.Iteration(), "manual mode only starts once on its own")
}

func TestFrame_NoStartDelay(t *testing.T) {
	s := newTestSession(t, func(o *Options) { o.Auto = true })

	for i := 0; i < 50; i++ {
		s.Frame()
	}
	assert.Equal(t, 0, s.Iteration(), "disabled start delay waits for a trigger")

	require.NoError(t, s.Next())
	for i := 0; s.Iteration() < 2; i++ {
		require.Less(t, i, 10000, "auto mode did not continue after the first trigger")
		s.Frame()
	}
	assert.Equal(t, StateAnimating, s.State())
}

func TestSetAuto_ContinuesFromIdle(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.Next())
	settle(t, s)
	require.Equal(t, StateIdle, s.State())

	s.SetAuto(true)
	s.Frame()

	assert.Equal(t, 2, s.Iteration())
	assert.True(t, s.Auto())
}

func TestRunToCompletion(t *testing.T) {
	testCases := []struct {
		name string
		auto bool
	}{
		{name: "manual", auto: false},
		{name: "auto", auto: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSession(t, func(o *Options) { o.Auto = tc.auto })

			frames, err := s.RunToCompletion(100000)
			require.NoError(t, err)
			assert.Positive(t, frames)
			assert.Equal(t, StateFinished, s.State())
			assert.Len(t, s.Snapshot().History, 5)
		})
	}
}

func TestRunToCompletion_FrameLimit(t *testing.T) {
	s := newTestSession(t, func(o *Options) { o.Speed = 0.5 })

	_, err := s.RunToCompletion(3)
	assert.Error(t, err)
}

func TestMoreClustersThanElements(t *testing.T) {
	for _, policy := range []clustering.EmptyPolicy{clustering.EmptyKeep, clustering.EmptyReseed} {
		t.Run(string(policy), func(t *testing.T) {
			s := newTestSession(t, func(o *Options) {
				o.Clusters = 12
				o.Elements = 3
				o.EmptyPolicy = policy
			})

			_, err := s.RunToCompletion(100000)
			require.NoError(t, err)

			snap := s.Snapshot()
			for _, c := range snap.Centroids {
				assert.False(t, math.IsNaN(c.Position.X) || math.IsNaN(c.Position.Y) || math.IsNaN(c.Position.Z))
			}
			for _, h := range snap.History {
				assert.GreaterOrEqual(t, h.Empty, 9)
			}
		})
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.Next())

	snap := s.Snapshot()
	require.NotNil(t, snap.Targets)
	snap.Points[0].Cluster = 77
	snap.Centroids[0].Position.X = 1e9
	snap.History[0].Sizes[0] = -1

	again := s.Snapshot()
	assert.NotEqual(t, 77, again.Points[0].Cluster)
	assert.NotEqual(t, 1e9, again.Centroids[0].Position.X)
	assert.NotEqual(t, -1, again.History[0].Sizes[0])
}

func TestSnapshot_ClusterSizesMatchHistory(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.Next())

	snap := s.Snapshot()
	last, ok := snap.LastStats()
	require.True(t, ok)
	assert.Equal(t, last.Sizes, snap.ClusterSizes())
	assert.Equal(t, 120, sum(snap.ClusterSizes()))
}

func TestRestart(t *testing.T) {
	s := newTestSession(t, nil)
	first := s.Snapshot()
	require.NoError(t, s.Next())

	s.Restart()
	second := s.Snapshot()

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Remaining)
	assert.Empty(t, second.History)
	assert.NotEqual(t, first.Points[0].Position, second.Points[0].Position)

	again := newTestSession(t, nil)
	assert.Equal(t, first.Points, again.Snapshot().Points, "fixed seed reproduces the scene")
}

func TestSetSpeed(t *testing.T) {
	s := newTestSession(t, nil)

	require.NoError(t, s.SetSpeed(12.5))
	assert.Equal(t, 12.5, s.Speed())
	assert.ErrorIs(t, s.SetSpeed(0), ErrInvalidOptions)
	assert.Equal(t, 12.5, s.Options().Speed)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "animating", StateAnimating.String())
	assert.Equal(t, "finished", StateFinished.String())
	assert.Equal(t, "state(9)", State(9).String())
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}
