// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/ergowatch/internal/domain/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // shared codec

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Latest returns the report currently held and whether any was stored.
	Latest(ctx context.Context) (types.PostureReport, bool)
	// Replace overwrites the held report.
	Replace(ctx context.Context, r types.PostureReport) error
}

// Server wires HTTP routes for the posture API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	postureHandler *PostureHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...PostureOption) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		postureHandler: NewPostureHandler(deps, opts...),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/posture", MetricsMiddleware(s.postureHandler.HandlePosture, "posture"))
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
