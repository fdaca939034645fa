package tui

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Mazurkevichkv/k-means/internal/logger"
	"github.com/Mazurkevichkv/k-means/internal/render"
	"github.com/Mazurkevichkv/k-means/internal/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	orbitStep   = math.Pi / 36
	speedFactor = 1.25
	minSpeed    = 0.5
	maxSpeed    = 500
	statusLines = 4
)

// frameMsg drives one animation frame.
type frameMsg time.Time

// model is the state of the terminal visualization.
// The session is only touched from Update, which bubbletea calls on one goroutine.
type model struct {
	session  *session.Session
	camera   *render.Camera
	canvas   *render.Canvas
	interval time.Duration
	width    int
	height   int
	notice   string
	quitting bool
}

// Options configures the terminal program.
type Options struct {
	FrameInterval  time.Duration
	FOV            float64
	CameraDistance float64
}

// NewModel returns the initial state of the TUI model.
func NewModel(s *session.Session, opts Options) model {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = time.Second / 30
	}
	return model{
		session:  s,
		camera:   render.NewCamera(opts.FOV, opts.CameraDistance),
		canvas:   render.NewCanvas(0, 0),
		interval: opts.FrameInterval,
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Init schedules the first frame.
func (m model) Init() tea.Cmd {
	return m.tick()
}

// Update handles messages and updates the model accordingly.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.canvas.Resize(msg.Width, max(msg.Height-statusLines, 0))

	case frameMsg:
		m.session.Frame()
		return m, m.tick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""

	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "n", " ":
		// The next trigger only exists in manual mode.
		if m.session.Auto() {
			return m, nil
		}
		if err := m.session.Next(); err != nil {
			m.notice = triggerNotice(err)
			logger.Debug("Trigger ignored", "reason", err.Error())
		}

	case "a":
		m.session.SetAuto(!m.session.Auto())

	case "+", "=":
		m.setSpeed(m.session.Speed() * speedFactor)
	case "-", "_":
		m.setSpeed(m.session.Speed() / speedFactor)

	case "left", "h":
		m.camera.Orbit(-orbitStep, 0)
	case "right", "l":
		m.camera.Orbit(orbitStep, 0)
	case "up", "k":
		m.camera.Orbit(0, orbitStep)
	case "down", "j":
		m.camera.Orbit(0, -orbitStep)
	case "z":
		m.camera.Zoom(1 / speedFactor)
	case "x":
		m.camera.Zoom(speedFactor)

	case "r":
		m.session.Restart()
		m.notice = "restarted"
	}

	return m, nil
}

func (m *model) setSpeed(speed float64) {
	speed = math.Max(minSpeed, math.Min(maxSpeed, speed))
	if err := m.session.SetSpeed(speed); err != nil {
		m.notice = err.Error()
	}
}

func triggerNotice(err error) string {
	switch {
	case errors.Is(err, session.ErrAnimating):
		return "centroids are still moving"
	case errors.Is(err, session.ErrExhausted):
		return "no iterations left, press r to restart"
	default:
		return err.Error()
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8A8A8"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// View renders the TUI.
func (m model) View() string {
	if m.quitting {
		return "Quitting...\n"
	}
	if m.width == 0 {
		return "Initializing..."
	}

	snap := m.session.Snapshot()
	render.DrawScene(m.canvas, m.camera, snap)

	var b strings.Builder
	b.WriteString(m.canvas.Render())
	b.WriteByte('\n')
	b.WriteString(titleStyle.Render("k-means") + " " + statusStyle.Render(statusLine(snap)))
	b.WriteByte('\n')
	b.WriteString(statusStyle.Render(statsLine(snap)))
	b.WriteByte('\n')
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
	}
	b.WriteByte('\n')
	b.WriteString(helpStyle.Render(helpLine(snap.Auto)))

	return b.String()
}

func statusLine(snap session.Snapshot) string {
	mode := "manual"
	if snap.Auto {
		mode = "auto"
	}
	return fmt.Sprintf("iteration %d/%d | %s | %s | speed %.1f | %d points | %d clusters",
		snap.Iteration, snap.Iterations, snap.State, mode, snap.Speed, len(snap.Points), len(snap.Centroids))
}

func statsLine(snap session.Snapshot) string {
	last, ok := snap.LastStats()
	if !ok {
		return "waiting for the first step"
	}
	return fmt.Sprintf("changed %d | empty %d | inertia %.0f", last.Changed, last.Empty, last.Inertia)
}

func helpLine(auto bool) string {
	next := "[n] Next | "
	if auto {
		next = ""
	}
	return next + "[a] Auto | [+/-] Speed | [←→↑↓] Orbit | [z/x] Zoom | [r] Restart | [q] Quit"
}

// StartTUI initializes and starts the Bubble Tea application.
func StartTUI(s *session.Session, opts Options) error {
	p := tea.NewProgram(NewModel(s, opts), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
