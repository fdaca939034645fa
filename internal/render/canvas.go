package render

import (
	"math"
	"strings"

	"github.com/Mazurkevichkv/k-means/internal/session"
	"github.com/charmbracelet/lipgloss"
)

// Glyphs used for scene entities.
const (
	PointGlyph    = '•'
	CentroidGlyph = '@'
	TargetGlyph   = '+'
	emptyGlyph    = ' '
)

// centroidRadius pulls centroids towards the viewer so they win against points at the same depth.
const centroidRadius = 15.0

// Cell is one character of the canvas.
type Cell struct {
	Glyph rune
	Color string // hex color, empty for the default foreground
	Depth float64
}

// Canvas is a depth-buffered character grid.
type Canvas struct {
	width  int
	height int
	cells  []Cell
	styles map[string]lipgloss.Style
}

// NewCanvas allocates a cleared canvas.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{styles: make(map[string]lipgloss.Style)}
	c.Resize(width, height)
	return c
}

// Resize changes the grid size and clears it.
func (c *Canvas) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c.width, c.height = width, height
	c.cells = make([]Cell, width*height)
	c.Clear()
}

// Width returns the number of columns.
func (c *Canvas) Width() int { return c.width }

// Height returns the number of rows.
func (c *Canvas) Height() int { return c.height }

// Clear resets every cell to empty at infinite depth.
func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = Cell{Glyph: emptyGlyph, Depth: math.Inf(1)}
	}
}

// Plot draws glyph at (x, y) unless something nearer is already there.
func (c *Canvas) Plot(x, y int, depth float64, glyph rune, color string) bool {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return false
	}
	cell := &c.cells[y*c.width+x]
	if depth >= cell.Depth {
		return false
	}
	*cell = Cell{Glyph: glyph, Color: color, Depth: depth}
	return true
}

// At returns the cell at (x, y).
func (c *Canvas) At(x, y int) Cell {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return Cell{Glyph: emptyGlyph, Depth: math.Inf(1)}
	}
	return c.cells[y*c.width+x]
}

// Plain renders the canvas without colors.
func (c *Canvas) Plain() string {
	var b strings.Builder
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			b.WriteRune(c.cells[y*c.width+x].Glyph)
		}
		if y < c.height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Render renders the canvas with lipgloss colors. Runs of equally colored cells
// share one style.
func (c *Canvas) Render() string {
	var b strings.Builder
	var run strings.Builder

	for y := 0; y < c.height; y++ {
		color := ""
		for x := 0; x < c.width; x++ {
			cell := c.cells[y*c.width+x]
			if cell.Color != color && run.Len() > 0 {
				b.WriteString(c.paint(color, run.String()))
				run.Reset()
			}
			color = cell.Color
			run.WriteRune(cell.Glyph)
		}
		if run.Len() > 0 {
			b.WriteString(c.paint(color, run.String()))
			run.Reset()
		}
		if y < c.height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (c *Canvas) paint(color, s string) string {
	if color == "" {
		return s
	}
	style, ok := c.styles[color]
	if !ok {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		c.styles[color] = style
	}
	return style.Render(s)
}

// DrawScene clears the canvas and draws points, relocation targets and centroids.
func DrawScene(c *Canvas, cam *Camera, snap session.Snapshot) {
	c.Clear()

	for _, p := range snap.Points {
		if x, y, depth, ok := cam.Project(p.Position, c.width, c.height); ok {
			c.Plot(x, y, depth, PointGlyph, p.Color.Hex())
		}
	}

	for i, target := range snap.Targets {
		if i >= len(snap.Centroids) {
			break
		}
		if x, y, depth, ok := cam.Project(target, c.width, c.height); ok {
			c.Plot(x, y, depth, TargetGlyph, snap.Centroids[i].Color.Hex())
		}
	}

	for _, centroid := range snap.Centroids {
		if x, y, depth, ok := cam.Project(centroid.Position, c.width, c.height); ok {
			c.Plot(x, y, depth-centroidRadius, CentroidGlyph, centroid.Color.Hex())
		}
	}
}
