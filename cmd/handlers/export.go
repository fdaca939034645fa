package handlers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Mazurkevichkv/k-means/internal/config"
	"github.com/Mazurkevichkv/k-means/internal/logger"
	"github.com/Mazurkevichkv/k-means/internal/render"
	"github.com/Mazurkevichkv/k-means/internal/session"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	var (
		output    string
		maxFrames int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run the clustering headless and write the final chart as HTML",
		Long: `Run every clustering step without a display, animating the centroids
frame by frame exactly as the visual modes do, then write the final state as a
standalone HTML 3D scatter chart and print per-iteration statistics.

Examples:
  # Export with defaults to kmeans.html
  kmeans export

  # Reproducible run with 5 clusters
  kmeans export --clusters 5 --seed 42 --output clusters.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if output == "" {
				output = cfg.Export.Output
			}
			if maxFrames == 0 {
				maxFrames = cfg.Export.MaxFrames
			}
			_, err := runExport(cmd.OutOrStdout(), cfg.SessionOptions(), output, maxFrames)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "HTML output file (default from config: kmeans.html)")
	cmd.Flags().IntVar(&maxFrames, "max-frames", 0, "give up after this many frames (default from config: 100000)")

	return cmd
}

func runExport(out io.Writer, opts session.Options, output string, maxFrames int) (session.Snapshot, error) {
	log := logger.Get()

	// Headless runs chain every step right away.
	opts.Auto = true
	opts.StartDelay = -1

	s, err := session.New(opts)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("failed to create session: %w", err)
	}

	frames, err := s.RunToCompletion(maxFrames)
	if err != nil {
		return session.Snapshot{}, err
	}
	snap := s.Snapshot()
	log.Info("Session finished", "session", snap.ID, "frames", frames)

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return snap, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(output)
	if err != nil {
		return snap, fmt.Errorf("failed to create output file: %w", err)
	}
	if err := render.WriteChart(f, snap); err != nil {
		f.Close()
		return snap, err
	}
	if err := f.Close(); err != nil {
		return snap, fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Fprintln(out, statsTable(snap))
	analysis := snap.Silhouette()
	fmt.Fprintf(out, "silhouette %.3f  %s\n", analysis.OverallScore, analysis.Quality)
	fmt.Fprintf(out, "%s %s (%d frames)\n", successStyle.Render("✓ Chart written to"), output, frames)
	return snap, nil
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
)

func statsTable(snap session.Snapshot) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ITER", "FRAME", "CHANGED", "EMPTY", "SETTLE", "INERTIA").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, h := range snap.History {
		t.Row(
			strconv.Itoa(h.Iteration),
			strconv.FormatInt(h.Frame, 10),
			strconv.Itoa(h.Changed),
			strconv.Itoa(h.Empty),
			strconv.Itoa(h.SettleFrames),
			strconv.FormatFloat(h.Inertia, 'f', 0, 64),
		)
	}

	return t.Render()
}
