package handlers

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mazurkevichkv/k-means/internal/config"
	"github.com/Mazurkevichkv/k-means/internal/session"
	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportOptions() session.Options {
	opts := session.DefaultOptions()
	opts.Clusters = 4
	opts.Elements = 80
	opts.Iterations = 5
	opts.Speed = 50
	opts.Seed = 3
	return opts
}

func TestRunExport(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out", "kmeans.html")
	var out bytes.Buffer

	snap, err := runExport(&out, exportOptions(), output, 100000)
	require.NoError(t, err)

	assert.Equal(t, session.StateFinished, snap.State)
	assert.Equal(t, 5, snap.Iteration)
	assert.Len(t, snap.History, 5)
	for _, p := range snap.Points {
		assert.GreaterOrEqual(t, p.Cluster, 0, "every point is assigned after a run")
	}

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	assert.Equal(t, "k-means", doc.Find("title").Text())

	assert.Contains(t, out.String(), "INERTIA")
	assert.Contains(t, out.String(), "silhouette")
	assert.Contains(t, out.String(), "Chart written to")
}

func TestRunExport_FrameLimit(t *testing.T) {
	opts := exportOptions()
	opts.Speed = 0.01
	output := filepath.Join(t.TempDir(), "kmeans.html")

	_, err := runExport(&bytes.Buffer{}, opts, output, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not finish within 10 frames")
	assert.NoFileExists(t, output)
}

func TestRunExport_InvalidOptions(t *testing.T) {
	opts := exportOptions()
	opts.Clusters = 0

	_, err := runExport(&bytes.Buffer{}, opts, filepath.Join(t.TempDir(), "x.html"), 100)
	assert.ErrorIs(t, err, session.ErrInvalidOptions)
}

func TestTUILoggerOptions(t *testing.T) {
	cfg := &config.Config{}
	cfg.Logging.Output = "stderr"
	assert.Equal(t, "discard", tuiLoggerOptions(cfg).Output)

	cfg.Logging.FilePath = "/tmp/kmeans.log"
	assert.Equal(t, "file", tuiLoggerOptions(cfg).Output)

	cfg.Logging.Output = "discard"
	assert.Equal(t, "discard", tuiLoggerOptions(cfg).Output)

	cfg.App.Debug = true
	assert.Equal(t, "debug", tuiLoggerOptions(cfg).Level)
}

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["tui"])
	assert.True(t, names["serve"])
	assert.True(t, names["export"])

	for flag := range flagKeys {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}
