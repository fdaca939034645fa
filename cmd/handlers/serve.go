package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mazurkevichkv/k-means/internal/config"
	"github.com/Mazurkevichkv/k-means/internal/logger"
	"github.com/Mazurkevichkv/k-means/internal/server"
	"github.com/Mazurkevichkv/k-means/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command for starting the HTTP server
func NewServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the clustering to a browser",
		Long: `Run the clustering in the background and serve it over HTTP.

The server provides:
  • A 3D scatter chart of the current state at /
  • The state as JSON at /api/state
  • Control endpoints: POST /api/next, /api/restart, /api/auto, /api/speed
  • A health check at /healthz

Examples:
  # Start server on default port 8080
  kmeans serve

  # Start on custom port with automatic steps
  kmeans serve --port 3000 --auto

  # Reload the chart every second
  open http://127.0.0.1:8080/?refresh=1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8080)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 127.0.0.1)")

	return cmd
}

func runServe(ctx context.Context, port int, host string) error {
	log := logger.Get()
	cfg := config.Get()

	// Override server config from flags if provided
	serverCfg := cfg.Server
	if port != 0 {
		serverCfg.Port = port
	}
	if host != "" {
		serverCfg.Host = host
	}

	s, err := session.New(cfg.SessionOptions())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	runner := server.NewRunner(s, cfg.Render.FPS)
	srv := server.New(runner, serverCfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(gctx)
	})
	g.Go(func() error {
		log.Info(fmt.Sprintf("Server listening on http://%s:%d", serverCfg.Host, serverCfg.Port))
		log.Info("Press Ctrl+C to stop")
		return srv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Server shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("Server stopped successfully")
	return nil
}
