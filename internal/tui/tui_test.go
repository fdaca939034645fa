package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/Mazurkevichkv/k-means/internal/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, auto bool) model {
	t.Helper()
	opts := session.DefaultOptions()
	opts.Clusters = 3
	opts.Elements = 40
	opts.Iterations = 3
	opts.Seed = 5
	opts.StartDelay = -1
	opts.Auto = auto
	s, err := session.New(opts)
	require.NoError(t, err)

	m := NewModel(s, Options{FrameInterval: time.Millisecond, FOV: 45, CameraDistance: 1000})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(model)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestUpdate_NextKey(t *testing.T) {
	m := newTestModel(t, false)

	next, _ := m.Update(key("n"))
	m = next.(model)
	assert.Equal(t, 1, m.session.Iteration())
	assert.Equal(t, session.StateAnimating, m.session.State())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = next.(model)
	assert.Equal(t, 1, m.session.Iteration(), "trigger while animating is ignored")
	assert.Equal(t, "centroids are still moving", m.notice)
}

func TestUpdate_NextKeyIgnoredInAutoMode(t *testing.T) {
	m := newTestModel(t, true)

	next, _ := m.Update(key("n"))
	m = next.(model)
	assert.Equal(t, 0, m.session.Iteration())
	assert.Empty(t, m.notice)
}

func TestUpdate_FrameAdvancesSession(t *testing.T) {
	m := newTestModel(t, false)
	next, _ := m.Update(key("n"))
	m = next.(model)

	for i := 0; m.session.State() == session.StateAnimating; i++ {
		require.Less(t, i, 10000)
		var cmd tea.Cmd
		next, cmd = m.Update(frameMsg(time.Now()))
		m = next.(model)
		require.NotNil(t, cmd, "every frame schedules the next one")
	}
	assert.Equal(t, session.StateIdle, m.session.State())
}

func TestUpdate_ToggleAutoAndSpeed(t *testing.T) {
	m := newTestModel(t, false)

	next, _ := m.Update(key("a"))
	m = next.(model)
	assert.True(t, m.session.Auto())

	before := m.session.Speed()
	next, _ = m.Update(key("+"))
	m = next.(model)
	assert.InDelta(t, before*speedFactor, m.session.Speed(), 1e-9)

	for i := 0; i < 100; i++ {
		next, _ = m.Update(key("-"))
		m = next.(model)
	}
	assert.Equal(t, minSpeed, m.session.Speed())
}

func TestUpdate_OrbitAndRestart(t *testing.T) {
	m := newTestModel(t, false)
	id := m.session.ID()

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = next.(model)
	assert.InDelta(t, orbitStep, m.camera.Yaw, 1e-12)

	next, _ = m.Update(key("r"))
	m = next.(model)
	assert.NotEqual(t, id, m.session.ID())
	assert.Equal(t, "restarted", m.notice)
}

func TestUpdate_Quit(t *testing.T) {
	m := newTestModel(t, false)

	next, cmd := m.Update(key("q"))
	m = next.(model)
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Equal(t, "Quitting...\n", m.View())
}

func TestView(t *testing.T) {
	m := newTestModel(t, false)

	view := m.View()
	assert.Contains(t, view, "iteration 0/3")
	assert.Contains(t, view, "waiting for the first step")
	assert.Contains(t, view, "[n] Next")

	auto := newTestModel(t, true)
	assert.NotContains(t, auto.View(), "[n] Next")
	assert.Len(t, strings.Split(view, "\n"), 24)
}

func TestView_BeforeWindowSize(t *testing.T) {
	s, err := session.New(session.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Initializing...", NewModel(s, Options{FOV: 45, CameraDistance: 1000}).View())
}
