package repository

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/okian/ergowatch/internal/domain/types"
	"github.com/okian/ergowatch/pkg/metrics"
)

// Option applies a configuration option to the Cell.
type Option func(*Cell)

// WithInitial seeds the cell with a report. The cell still reports that no
// update was received.
func WithInitial(r types.PostureReport) Option {
	return func(c *Cell) {
		c.report = r
	}
}

// WithClock sets the time source used for update metrics.
func WithClock(now func() time.Time) Option {
	return func(c *Cell) {
		if now != nil {
			c.now = now
		}
	}
}

// Cell is a single-slot Store. Every Replace overwrites the previous value
// wholesale; readers always see a complete report.
type Cell struct {
	mu     sync.RWMutex
	report types.PostureReport
	set    bool

	updates *atomic.Uint64
	closed  *atomic.Bool
	now     func() time.Time
}

var _ Store = (*Cell)(nil)

// NewCell creates an empty cell.
func NewCell(opts ...Option) *Cell {
	c := &Cell{
		updates: atomic.NewUint64(0),
		closed:  atomic.NewBool(false),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Replace stores r as the latest report.
func (c *Cell) Replace(ctx context.Context, r types.PostureReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.closed.Load() {
		metrics.RecordErrorByComponent("repository", "closed")
		return ErrClosed
	}

	c.mu.Lock()
	c.report = r
	c.set = true
	c.mu.Unlock()

	c.updates.Inc()
	metrics.RecordSnapshotUpdate(c.now().Unix())
	return nil
}

// Latest returns a copy of the held report.
func (c *Cell) Latest(_ context.Context) (types.PostureReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.report, c.set
}

// Updates returns how many times the report was replaced.
func (c *Cell) Updates() uint64 {
	return c.updates.Load()
}

// Close rejects further writes. Reads keep returning the last report.
func (c *Cell) Close() error {
	c.closed.Store(true)
	return nil
}
