package render

import (
	"fmt"
	"io"

	"github.com/Mazurkevichkv/k-means/internal/core"
	"github.com/Mazurkevichkv/k-means/internal/session"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartID is the DOM id of the chart container.
const ChartID = "kmeans"

// NewChart builds a 3D scatter chart of the snapshot: one series per cluster, one
// for points that were never assigned and one for the centroids.
func NewChart(snap session.Snapshot) *charts.Scatter3D {
	chart := charts.NewScatter3D()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       "k-means",
			ChartID:         ChartID,
			Width:           "1200px",
			Height:          "800px",
			BackgroundColor: "#000000",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "k-means clustering",
			Subtitle: ChartSubtitle(snap),
		}),
	)

	clusters := make([][]opts.Chart3DData, len(snap.Centroids))
	var unassigned []opts.Chart3DData
	for _, p := range snap.Points {
		d := chartPoint(fmt.Sprintf("point %d", p.ID), p.Position.X, p.Position.Y, p.Position.Z)
		if p.Cluster >= 0 && p.Cluster < len(clusters) {
			clusters[p.Cluster] = append(clusters[p.Cluster], d)
		} else {
			unassigned = append(unassigned, d)
		}
	}

	if len(unassigned) > 0 {
		chart.AddSeries("Unassigned", unassigned,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: core.NeutralColor.Hex(), Opacity: 0.6}))
	}
	for i, members := range clusters {
		chart.AddSeries(fmt.Sprintf("Cluster %d", i+1), members,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: snap.Centroids[i].Color.Hex(), Opacity: 0.6}))
	}

	centroids := make([]opts.Chart3DData, len(snap.Centroids))
	for i, c := range snap.Centroids {
		centroids[i] = chartPoint(fmt.Sprintf("centroid %d", i+1), c.Position.X, c.Position.Y, c.Position.Z)
		centroids[i].ItemStyle = &opts.ItemStyle{Color: c.Color.Hex(), BorderColor: "#ffffff", BorderWidth: 1}
	}
	chart.AddSeries("Centroids", centroids)

	return chart
}

func chartPoint(name string, x, y, z float64) opts.Chart3DData {
	return opts.Chart3DData{Name: name, Value: []interface{}{x, y, z}}
}

// ChartSubtitle summarizes the progress of the snapshot.
func ChartSubtitle(snap session.Snapshot) string {
	return fmt.Sprintf("iteration %d/%d · %s · %d points · %d clusters",
		snap.Iteration, snap.Iterations, snap.State, len(snap.Points), len(snap.Centroids))
}

// WriteChart renders the snapshot chart as a standalone HTML page.
func WriteChart(w io.Writer, snap session.Snapshot) error {
	if err := NewChart(snap).Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
