package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/spectral-works/prism/internal/events"
	"github.com/spectral-works/prism/internal/host"
	"github.com/spectral-works/prism/internal/protocol"
)

// HealthzResponse is the GET /healthz body.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	PluginsActive int    `json:"plugins_active"`
}

// PluginsResponse is the GET /v1/plugins body.
type PluginsResponse struct {
	Plugins []host.PluginStatus `json:"plugins"`
}

// SeriesResponse is the GET /v1/plugins/{plugin}/series body.
type SeriesResponse struct {
	Plugin    string                     `json:"plugin"`
	Graph     string                     `json:"graph"` // "primary" or "secondary"
	GraphType string                     `json:"graph_type,omitempty"`
	Series    map[string]protocol.Series `json:"series"`
}

// SetFieldRequest is the POST /v1/plugins/{plugin}/fields/{field} body.
type SetFieldRequest struct {
	Value any `json:"value"`
}

// SaveResponse is the POST /v1/save body.
type SaveResponse struct {
	MeasurementID string `json:"measurement_id"`
}

// EventsResponse is the GET /v1/events body.
type EventsResponse struct {
	Events []events.Event `json:"events"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		PluginsActive: s.session.ActiveCount(),
	})
}

func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, PluginsResponse{Plugins: s.session.Status()})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	pluginName := chi.URLParam(r, "plugin")
	snap := s.session.Series(pluginName)

	graph := "primary"
	if snap.Target.Secondary {
		graph = "secondary"
	}
	s.writeJSON(w, http.StatusOK, SeriesResponse{
		Plugin:    pluginName,
		Graph:     graph,
		GraphType: string(snap.Target.Type),
		Series:    snap.Series,
	})
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	pluginName := chi.URLParam(r, "plugin")
	field := chi.URLParam(r, "field")

	var req SetFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.session.SetField(pluginName, field, req.Value); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	id, err := s.session.TriggerSave(r.Context())
	if err != nil {
		s.logger.Error("save trigger failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "save failed")
		return
	}
	s.writeJSON(w, http.StatusOK, SaveResponse{MeasurementID: id})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = parsed
	}
	s.writeJSON(w, http.StatusOK, EventsResponse{Events: s.eventSrc.SnapshotSince(since)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
