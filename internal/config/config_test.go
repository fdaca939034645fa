package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mazurkevichkv/k-means/internal/clustering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kmeans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load(writeConfig(t, "app:\n  debug: false\n"))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.KMeans.Clusters)
	assert.Equal(t, 500, cfg.KMeans.Elements)
	assert.Equal(t, 30, cfg.KMeans.Iterations)
	assert.False(t, cfg.KMeans.Auto)
	assert.Equal(t, 5.0, cfg.KMeans.Speed)
	assert.Equal(t, 10.0, cfg.KMeans.Epsilon)
	assert.Equal(t, "keep", cfg.KMeans.EmptyPolicy)
	assert.Equal(t, 30, cfg.Render.FPS)
	assert.Equal(t, 1000.0, cfg.Render.CameraDistance, "camera distance follows scene depth")
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Same(t, cfg, Get())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	t.Setenv("KMEANS_ELEMENTS", "42")
	t.Setenv("KMEANS_PORT", "9090")

	path := writeConfig(t, `
kmeans:
  clusters: 3
  auto: true
  speed: 12.5
  empty_policy: reseed
  start_delay: 2s
render:
  fps: 20
scene:
  depth: 600
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.App.ConfigFile)
	assert.Equal(t, 3, cfg.KMeans.Clusters)
	assert.Equal(t, 42, cfg.KMeans.Elements)
	assert.Equal(t, 9090, cfg.Server.Port)

	opts := cfg.SessionOptions()
	assert.True(t, opts.Auto)
	assert.Equal(t, 12.5, opts.Speed)
	assert.Equal(t, clustering.EmptyReseed, opts.EmptyPolicy)
	assert.Equal(t, 40, opts.StartDelay)
	assert.Equal(t, 600.0, opts.Bounds.Depth)
	assert.Equal(t, 50*time.Millisecond, cfg.FrameInterval())
}

func TestLoad_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "no clusters", content: "kmeans:\n  clusters: 0\n"},
		{name: "negative speed", content: "kmeans:\n  speed: -1\n"},
		{name: "unknown policy", content: "kmeans:\n  empty_policy: vanish\n"},
		{name: "bad fps", content: "render:\n  fps: 0\n"},
		{name: "bad delay", content: "kmeans:\n  start_delay: soon\n"},
		{name: "file logging without path", content: "logging:\n  output: file\n"},
		{name: "bad level", content: "logging:\n  level: chatty\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			Reset()
			t.Cleanup(Reset)

			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MoreClustersThanElementsIsAllowed(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load(writeConfig(t, "kmeans:\n  clusters: 20\n  elements: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.KMeans.Clusters)
}

func TestStartDelayFrames(t *testing.T) {
	cfg := &Config{Render: Render{FPS: 60}}

	cfg.KMeans.StartDelay = ""
	assert.Equal(t, -1, cfg.StartDelayFrames())

	cfg.KMeans.StartDelay = "500ms"
	assert.Equal(t, 30, cfg.StartDelayFrames())

	cfg.KMeans.StartDelay = "0s"
	assert.Equal(t, 0, cfg.StartDelayFrames())
}

func TestDebugForcesDebugLogging(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load(writeConfig(t, "app:\n  debug: true\n"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LoggerOptions().Level)
}
