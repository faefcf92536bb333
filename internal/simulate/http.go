package simulate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/ergowatch/internal/adapters/notify"
	"github.com/okian/ergowatch/internal/domain/types"
	"github.com/okian/ergowatch/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // shared codec

// Client talks to the dashboard endpoints. Updates go through the same
// notifier the analyzer uses.
type Client struct {
	baseURL  string
	http     *http.Client
	notifier *notify.HTTPNotifier
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	hc := &http.Client{Timeout: timeout}
	return &Client{
		baseURL:  baseURL,
		http:     hc,
		notifier: notify.NewHTTPNotifier(baseURL+"/api/posture", notify.WithTimeout(timeout), notify.WithHTTPClient(hc)),
	}
}

// Health checks /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer closeBody(resp)
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Post sends one update.
func (c *Client) Post(ctx context.Context, u types.PostureUpdate) error {
	return c.notifier.Notify(ctx, u)
}

// Latest fetches the report the dashboard currently shows.
func (c *Client) Latest(ctx context.Context) (types.PostureReport, error) {
	resp, err := c.get(ctx, "/api/posture")
	if err != nil {
		return types.PostureReport{}, err
	}
	defer closeBody(resp)
	if resp.StatusCode != http.StatusOK {
		return types.PostureReport{}, fmt.Errorf("get posture: status %d", resp.StatusCode)
	}
	var r types.PostureReport
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return types.PostureReport{}, fmt.Errorf("decode posture: %w", err)
	}
	return r, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return resp, nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
	}
}
