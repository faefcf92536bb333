package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/ergowatch/internal/domain/scoring"
	"github.com/okian/ergowatch/internal/domain/types"
)

const maxUpdateBytes = 64 * 1024

// PostureDependencies defines the interface for posture report storage.
type PostureDependencies interface {
	Latest(ctx context.Context) (types.PostureReport, bool)
	Replace(ctx context.Context, r types.PostureReport) error
}

// PostureOption applies a configuration option to the PostureHandler.
type PostureOption func(*PostureHandler)

// WithClock sets the time source used to stamp received updates.
func WithClock(now func() time.Time) PostureOption {
	return func(h *PostureHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// PostureHandler serves and accepts the latest posture report.
type PostureHandler struct {
	deps     PostureDependencies
	validate *validator.Validate
	now      func() time.Time
}

// NewPostureHandler creates a new posture handler.
func NewPostureHandler(deps PostureDependencies, opts ...PostureOption) *PostureHandler {
	h := &PostureHandler{
		deps:     deps,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandlePosture dispatches GET and POST /api/posture.
func (h *PostureHandler) HandlePosture(w http.ResponseWriter, r *http.Request) {
	const op = "api.posture"

	switch r.Method {
	case http.MethodGet:
		h.HandleGetPosture(w, r)
	case http.MethodPost:
		h.HandlePostPosture(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethod))
	}
}

// HandleGetPosture returns the latest report, or a zero report before the
// first update.
func (h *PostureHandler) HandleGetPosture(w http.ResponseWriter, r *http.Request) {
	report, _ := h.deps.Latest(r.Context())
	writeJSON(w, http.StatusOK, report)
}

// HandlePostPosture accepts a flat posture update from the analyzer.
func (h *PostureHandler) HandlePostPosture(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_posture"

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type",
			WrapKind(op, ErrBadRequest, fmt.Errorf("content type %q", ct)))
		return
	}

	var u types.PostureUpdate
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.validate.Struct(u); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := checkConsistency(u); err != nil {
		writeError(w, http.StatusBadRequest, "inconsistent", WrapKind(op, ErrInconsistent, err))
		return
	}

	if err := h.deps.Replace(r.Context(), u.Report(h.now())); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", WrapKind(op, ErrStore, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "success"})
}

// checkConsistency requires category and recommendation to follow from the
// segment codes.
func checkConsistency(u types.PostureUpdate) error {
	category, recommendation := scoring.Categorize(u.Score())
	if u.Category != category {
		return fmt.Errorf("category %d does not match score %d (want %d)", u.Category, u.Score(), category)
	}
	if u.Recommendation != recommendation {
		return fmt.Errorf("recommendation %q does not match category %d", u.Recommendation, category)
	}
	return nil
}
