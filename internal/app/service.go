// Package service runs the posture sampling loop and provides the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/okian/ergowatch/internal/adapters/notify"
	"github.com/okian/ergowatch/internal/adapters/recorder"
	"github.com/okian/ergowatch/internal/adapters/repository"
	"github.com/okian/ergowatch/internal/adapters/sensor"
	"github.com/okian/ergowatch/internal/domain/geometry"
	"github.com/okian/ergowatch/internal/domain/model"
	"github.com/okian/ergowatch/internal/domain/scoring"
	"github.com/okian/ergowatch/internal/domain/types"
	"github.com/okian/ergowatch/pkg/logger"
	"github.com/okian/ergowatch/pkg/metrics"
)

// Default service configuration.
const (
	DefaultInterval     = 10 * time.Second
	DefaultCaptureCount = 60
)

// Service samples the sensor on a fixed interval, evaluates posture and
// reports every snapshot to the dashboard.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	source     sensor.Source
	classifier *scoring.Classifier
	notifier   notify.Notifier
	recorder   *recorder.Recorder
	store      repository.Store

	// Configuration
	interval     time.Duration
	captureCount int

	// Counters
	cycles           *atomic.Uint64
	evaluated        *atomic.Uint64
	noFrame          *atomic.Uint64
	noPerson         *atomic.Uint64
	degenerate       *atomic.Uint64
	reportsDelivered *atomic.Uint64
	reportsFailed    *atomic.Uint64
	captureIndex     *atomic.Int64

	// State
	last    model.Snapshot
	hasLast bool
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets where frames come from.
func WithSource(src sensor.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithClassifier sets the posture classifier.
func WithClassifier(c *scoring.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithNotifier sets the report sink. Without one, reports go straight into
// the service's store.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithRecorder sets the on-disk recorder.
func WithRecorder(r *recorder.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithStore sets the latest-report store served by the API.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithInterval sets the sampling interval.
func WithInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithCaptureCount sets how many capture slots are cycled through.
func WithCaptureCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.captureCount = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		classifier:       scoring.NewClassifier(),
		recorder:         recorder.New(),
		interval:         DefaultInterval,
		captureCount:     DefaultCaptureCount,
		cycles:           atomic.NewUint64(0),
		evaluated:        atomic.NewUint64(0),
		noFrame:          atomic.NewUint64(0),
		noPerson:         atomic.NewUint64(0),
		degenerate:       atomic.NewUint64(0),
		reportsDelivered: atomic.NewUint64(0),
		reportsFailed:    atomic.NewUint64(0),
		captureIndex:     atomic.NewInt64(0),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewCell()
	}
	if s.notifier == nil {
		s.notifier = notify.NewStoreNotifier(s.store)
	}
	if s.logger == nil {
		s.logger = logger.Named("sampler")
	}
	return s
}

// Start launches the sampling loop. The first cycle runs immediately.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.source == nil {
		return ErrNoSource
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	go s.run(loopCtx, s.done)

	s.logger.Info(ctx, "posture service started",
		logger.String("interval", s.interval.String()),
		logger.Int("captureCount", s.captureCount),
	)
	return nil
}

// Stop halts the sampling loop and waits for the running cycle to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done

	if closer, ok := s.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close frame source", logger.Error(err))
		}
	}
	s.logger.Info(context.Background(), "posture service stopped")
}

func (s *Service) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Service) cycle(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn(ctx, "posture cycle skipped",
			logger.String("outcome", outcome(err)),
			logger.Error(err),
		)
	}
}

// RunOnce performs one acquisition, evaluation and report. The returned
// error says why no snapshot was produced; reporting failures are logged
// and never returned.
func (s *Service) RunOnce(ctx context.Context) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	if s.source == nil {
		return model.Snapshot{}, ErrNoSource
	}
	start := time.Now()
	s.cycles.Inc()

	frame, err := s.source.Capture(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return model.Snapshot{}, ctx.Err()
		}
		if errors.Is(err, sensor.ErrNoPerson) {
			s.nextCaptureIndex()
		}
		return model.Snapshot{}, s.fail(err)
	}
	index := s.nextCaptureIndex()

	points, err := geometry.FromFrame(frame)
	if err != nil {
		return model.Snapshot{}, s.fail(err)
	}
	angles, err := geometry.Extract(points)
	if err != nil {
		return model.Snapshot{}, s.fail(err)
	}
	snap, err := s.classifier.Evaluate(ctx, angles)
	if err != nil {
		return model.Snapshot{}, s.fail(err)
	}

	s.evaluated.Inc()
	metrics.RecordCycle(metrics.OutcomeEvaluated)
	metrics.RecordEvaluationLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordSnapshot(snap.Score, snap.Category,
		map[string]float64{"head": snap.Head.Angle, "shoulders": snap.Shoulders.Angle, "arms": snap.Arms.Angle, "back": snap.Back.Angle},
		map[string]int{"head": snap.Head.Code, "shoulders": snap.Shoulders.Code, "arms": snap.Arms.Code, "back": snap.Back.Code},
	)

	s.mu.Lock()
	s.last, s.hasLast = snap, true
	s.mu.Unlock()

	s.logger.Info(ctx, "posture evaluated",
		logger.String("capture", recorder.CaptureName(index)),
		logger.Float64("head", snap.Head.Angle),
		logger.Float64("shoulders", snap.Shoulders.Angle),
		logger.Float64("arms", snap.Arms.Angle),
		logger.Float64("back", snap.Back.Angle),
		logger.Int("score", snap.Score),
		logger.Int("category", snap.Category),
	)

	if err := s.recorder.Record(ctx, frame, snap, index); err != nil {
		metrics.RecordRecorderError()
		s.logger.Warn(ctx, "failed to record snapshot", logger.Error(err))
	}
	s.report(ctx, snap)

	return snap, nil
}

// report delivers the snapshot. Failures are logged and dropped; the next
// cycle supersedes them.
func (s *Service) report(ctx context.Context, snap model.Snapshot) {
	start := time.Now()
	err := s.notifier.Notify(ctx, types.UpdateFromSnapshot(snap))
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		s.reportsFailed.Inc()
		metrics.RecordReport(metrics.ReportFailed, latency)
		metrics.RecordErrorByComponent("notifier", "report")
		s.logger.Warn(ctx, "failed to report snapshot",
			logger.String("snapshot", snap.ID),
			logger.Error(err),
		)
		return
	}
	s.reportsDelivered.Inc()
	metrics.RecordReport(metrics.ReportDelivered, latency)
}

// fail counts a cycle that produced no snapshot.
func (s *Service) fail(err error) error {
	o := outcome(err)
	switch o {
	case metrics.OutcomeNoPerson:
		s.noPerson.Inc()
	case metrics.OutcomeDegenerate:
		s.degenerate.Inc()
	default:
		s.noFrame.Inc()
	}
	metrics.RecordCycle(o)
	return err
}

// nextCaptureIndex returns the slot for this frame and advances the counter.
func (s *Service) nextCaptureIndex() int {
	n := int64(s.captureCount)
	for {
		cur := s.captureIndex.Load()
		if s.captureIndex.CAS(cur, (cur+1)%n) {
			metrics.UpdateCaptureIndex(int((cur + 1) % n))
			return int(cur)
		}
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, sensor.ErrNoPerson), errors.Is(err, geometry.ErrMissingLandmark):
		return metrics.OutcomeNoPerson
	case errors.Is(err, geometry.ErrDegenerate), errors.Is(err, scoring.ErrInvalidAngle):
		return metrics.OutcomeDegenerate
	default:
		return metrics.OutcomeNoFrame
	}
}

// Latest returns the report currently served to the dashboard.
func (s *Service) Latest(ctx context.Context) (types.PostureReport, bool) {
	return s.store.Latest(ctx)
}

// Replace stores a report received from an analyzer.
func (s *Service) Replace(ctx context.Context, r types.PostureReport) error {
	if err := s.store.Replace(ctx, r); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

// LastSnapshot returns the most recent snapshot evaluated by this process.
func (s *Service) LastSnapshot() (model.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.hasLast
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"intervalSeconds":  s.interval.Seconds(),
		"captureCount":     s.captureCount,
		"captureIndex":     s.captureIndex.Load(),
		"cycles":           s.cycles.Load(),
		"evaluated":        s.evaluated.Load(),
		"noFrame":          s.noFrame.Load(),
		"noPerson":         s.noPerson.Load(),
		"degenerate":       s.degenerate.Load(),
		"reportsDelivered": s.reportsDelivered.Load(),
		"reportsFailed":    s.reportsFailed.Load(),
	}
	if s.hasLast {
		stats["lastScore"] = s.last.Score
		stats["lastCategory"] = s.last.Category
		stats["lastSnapshotAt"] = s.last.TakenAt.Format(time.RFC3339)
	}
	if c, ok := s.store.(interface{ Updates() uint64 }); ok {
		stats["storeUpdates"] = c.Updates()
	}
	return stats
}
