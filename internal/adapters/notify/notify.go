// Package notify delivers posture updates to the dashboard.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/ergowatch/internal/adapters/repository"
	"github.com/okian/ergowatch/internal/domain/types"
)

// DefaultTimeout bounds one delivery attempt.
const DefaultTimeout = 2 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // shared codec

// Notifier is a best-effort sink for posture updates.
type Notifier interface {
	Notify(ctx context.Context, u types.PostureUpdate) error
}

// Option applies a configuration option to the HTTPNotifier.
type Option func(*HTTPNotifier)

// WithTimeout bounds each POST.
func WithTimeout(d time.Duration) Option {
	return func(n *HTTPNotifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithHTTPClient replaces the client used for delivery.
func WithHTTPClient(c *http.Client) Option {
	return func(n *HTTPNotifier) {
		if c != nil {
			n.client = c
		}
	}
}

// HTTPNotifier POSTs updates as JSON to the dashboard endpoint.
type HTTPNotifier struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

var _ Notifier = (*HTTPNotifier)(nil)

// NewHTTPNotifier creates a notifier posting to url.
func NewHTTPNotifier(url string, opts ...Option) *HTTPNotifier {
	n := &HTTPNotifier{url: url, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(n)
	}
	if n.client == nil {
		n.client = &http.Client{Timeout: n.timeout}
	}
	return n
}

// Notify sends one update. Every failure wraps ErrReport.
func (n *HTTPNotifier) Notify(ctx context.Context, u types.PostureUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrReport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrReport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReport, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %w: %d", ErrReport, ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

// StoreNotifier delivers updates straight into a Store, for a dashboard
// served by the same process.
type StoreNotifier struct {
	store repository.Store
	now   func() time.Time
}

var _ Notifier = (*StoreNotifier)(nil)

// NewStoreNotifier creates an in-process notifier.
func NewStoreNotifier(store repository.Store) *StoreNotifier {
	return &StoreNotifier{store: store, now: time.Now}
}

// Notify stamps the update and replaces the stored report.
func (n *StoreNotifier) Notify(ctx context.Context, u types.PostureUpdate) error {
	if err := n.store.Replace(ctx, u.Report(n.now())); err != nil {
		return fmt.Errorf("%w: %v", ErrReport, err)
	}
	return nil
}
