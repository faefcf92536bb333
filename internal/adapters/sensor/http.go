package sensor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/ergowatch/internal/domain/model"
)

const (
	defaultPollTimeout = 2 * time.Second
	maxFrameBytes      = 1 << 20
)

// HTTPOption applies a configuration option to the HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPMinConfidence sets the landmark visibility filter. Values outside
// [0,1] are ignored.
func WithHTTPMinConfidence(v float64) HTTPOption {
	return func(s *HTTPSource) {
		if v >= 0 && v <= 1 {
			s.minConfidence = v
		}
	}
}

// WithPollTimeout bounds one poll of the keypoint endpoint.
func WithPollTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHTTPClient replaces the client used for polling.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// HTTPSource polls a keypoint sidecar that returns the current frame as JSON.
// The sidecar answers 204 when nobody is in view.
type HTTPSource struct {
	url           string
	client        *http.Client
	timeout       time.Duration
	minConfidence float64
	now           func() time.Time
}

var _ Source = (*HTTPSource)(nil)

// NewHTTPSource creates a poller for url.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:           url,
		timeout:       defaultPollTimeout,
		minConfidence: DefaultMinConfidence,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: s.timeout}
	}
	return s
}

// Capture fetches the current frame.
func (s *HTTPSource) Capture(ctx context.Context) (model.Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return model.Frame{}, fmt.Errorf("%w: build request: %v", ErrNoFrame, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return model.Frame{}, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return model.Frame{}, ErrNoPerson
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return model.Frame{}, fmt.Errorf("%w: keypoint endpoint returned %d", ErrNoFrame, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
	if err != nil {
		return model.Frame{}, fmt.Errorf("%w: read body: %v", ErrNoFrame, err)
	}
	frame, err := decodeFrame(body, s.minConfidence, s.now)
	if err != nil {
		return model.Frame{}, fmt.Errorf("%w: decode: %v", ErrNoFrame, err)
	}
	if len(frame.Landmarks) == 0 {
		return model.Frame{}, ErrNoPerson
	}
	return frame, nil
}
