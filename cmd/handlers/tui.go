package handlers

import (
	"fmt"
	"strings"

	"github.com/Mazurkevichkv/k-means/internal/config"
	"github.com/Mazurkevichkv/k-means/internal/logger"
	"github.com/Mazurkevichkv/k-means/internal/session"
	"github.com/Mazurkevichkv/k-means/internal/tui"
	"github.com/spf13/cobra"
)

// NewTUICmd creates the TUI command
func NewTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Animate the clustering in the terminal",
		Long: `Animate the clustering in the terminal.

Keys:
  n, space   run the next clustering step (manual mode only)
  a          toggle automatic mode
  +, -       change animation speed
  arrows     orbit the camera
  z, x       zoom in and out
  r          restart with new points and centroids
  q          quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}
}

func runTUI() error {
	cfg := config.Get()

	// The terminal belongs to the TUI, so logs go to a file or nowhere.
	opts := tuiLoggerOptions(cfg)
	if err := logger.Configure(opts); err != nil {
		return fmt.Errorf("failed to configure logger: %w", err)
	}
	defer logger.Close()

	s, err := session.New(cfg.SessionOptions())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return tui.StartTUI(s, tui.Options{
		FrameInterval:  cfg.FrameInterval(),
		FOV:            cfg.Render.FOV,
		CameraDistance: cfg.Render.CameraDistance,
	})
}

func tuiLoggerOptions(cfg *config.Config) logger.Options {
	opts := cfg.LoggerOptions()
	if cfg.App.Debug {
		opts.Level = "debug"
	}
	switch strings.ToLower(opts.Output) {
	case "", "stdout", "stderr":
		if opts.FilePath != "" {
			opts.Output = "file"
		} else {
			opts.Output = "discard"
		}
	}
	return opts
}
