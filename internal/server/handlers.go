package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Mazurkevichkv/k-means/internal/clustering"
	"github.com/Mazurkevichkv/k-means/internal/core"
	"github.com/Mazurkevichkv/k-means/internal/render"
	"github.com/Mazurkevichkv/k-means/internal/session"
)

// HealthResponse is returned by /healthz
type HealthResponse struct {
	Status  string `json:"status"`
	Session string `json:"session"`
	Uptime  string `json:"uptime"`
}

// PointResponse is a point with its color as hex
type PointResponse struct {
	ID      int     `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Color   string  `json:"color"`
	Cluster int     `json:"cluster"`
}

// CentroidResponse is a centroid with its relocation target while animating
type CentroidResponse struct {
	ID     int         `json:"id"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Z      float64     `json:"z"`
	Color  string      `json:"color"`
	Target *[3]float64 `json:"target,omitempty"`
}

// StateResponse is the JSON form of a session snapshot
type StateResponse struct {
	ID         string                   `json:"id"`
	Frame      int64                    `json:"frame"`
	State      string                   `json:"state"`
	Auto       bool                     `json:"auto"`
	Speed      float64                  `json:"speed"`
	Iteration  int                      `json:"iteration"`
	Iterations int                      `json:"iterations"`
	Remaining  int                      `json:"remaining"`
	Bounds     core.Bounds              `json:"bounds"`
	Sizes      []int                    `json:"sizes"`
	Points     []PointResponse          `json:"points,omitempty"`
	Centroids  []CentroidResponse       `json:"centroids"`
	History    []session.IterationStats `json:"history"`

	Silhouette *clustering.SilhouetteAnalysis `json:"silhouette,omitempty"` // Only once finished
}

var serverStartTime = time.Now()

func newStateResponse(snap session.Snapshot, withPoints bool) StateResponse {
	resp := StateResponse{
		ID:         snap.ID,
		Frame:      snap.Frame,
		State:      snap.State.String(),
		Auto:       snap.Auto,
		Speed:      snap.Speed,
		Iteration:  snap.Iteration,
		Iterations: snap.Iterations,
		Remaining:  snap.Remaining,
		Bounds:     snap.Bounds,
		Sizes:      snap.ClusterSizes(),
		Centroids:  make([]CentroidResponse, len(snap.Centroids)),
		History:    snap.History,
	}

	if snap.State == session.StateFinished {
		analysis := snap.Silhouette()
		resp.Silhouette = &analysis
	}

	if withPoints {
		resp.Points = make([]PointResponse, len(snap.Points))
		for i, p := range snap.Points {
			resp.Points[i] = PointResponse{
				ID:      p.ID,
				X:       p.Position.X,
				Y:       p.Position.Y,
				Z:       p.Position.Z,
				Color:   p.Color.Hex(),
				Cluster: p.Cluster,
			}
		}
	}

	for i, c := range snap.Centroids {
		resp.Centroids[i] = CentroidResponse{
			ID:    c.ID,
			X:     c.Position.X,
			Y:     c.Position.Y,
			Z:     c.Position.Z,
			Color: c.Color.Hex(),
		}
		if i < len(snap.Targets) {
			t := snap.Targets[i]
			resp.Centroids[i].Target = &[3]float64{t.X, t.Y, t.Z}
		}
	}

	return resp
}

// handleHealth handles the /healthz endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Session: s.runner.Snapshot().ID,
		Uptime:  time.Since(serverStartTime).Round(time.Second).String(),
	})
}

// handleChartPage renders the current snapshot as a 3D scatter chart.
// An optional ?refresh=N asks the browser to reload every N seconds.
func (s *Server) handleChartPage(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("refresh"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 1 {
			s.respondError(w, http.StatusBadRequest, "refresh must be a positive number of seconds")
			return
		}
		w.Header().Set("Refresh", strconv.Itoa(secs))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WriteChart(w, s.runner.Snapshot()); err != nil {
		s.log.Error("Failed to render chart", "error", err)
	}
}

// handleState handles GET /api/state
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	withPoints := true
	if raw := r.URL.Query().Get("points"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "points must be a boolean")
			return
		}
		withPoints = v
	}
	s.respondJSON(w, http.StatusOK, newStateResponse(s.runner.Snapshot(), withPoints))
}

// handleNext handles POST /api/next
func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.respondCommand(w, r, s.runner.Next(r.Context()))
}

// handleRestart handles POST /api/restart
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	s.respondCommand(w, r, s.runner.Restart(r.Context()))
}

// handleAuto handles POST /api/auto?enabled=true|false
func (s *Server) handleAuto(w http.ResponseWriter, r *http.Request) {
	enabled, err := strconv.ParseBool(r.URL.Query().Get("enabled"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "enabled must be a boolean")
		return
	}
	s.respondCommand(w, r, s.runner.SetAuto(r.Context(), enabled))
}

// handleSpeed handles POST /api/speed?value=N
func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	speed, err := strconv.ParseFloat(r.URL.Query().Get("value"), 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "value must be a number")
		return
	}
	s.respondCommand(w, r, s.runner.SetSpeed(r.Context(), speed))
}

// respondCommand maps the outcome of a runner command to a response.
func (s *Server) respondCommand(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		s.respondJSON(w, http.StatusOK, newStateResponse(s.runner.Snapshot(), false))
	case IsConflict(err):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrInvalidOptions):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case r.Context().Err() != nil:
		s.respondError(w, http.StatusServiceUnavailable, "request canceled")
	default:
		s.log.Error("Command failed", "path", r.URL.Path, "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"status":  status,
			"message": message,
		},
	})
}
