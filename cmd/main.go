package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/ergowatch/internal/adapters/http/api"
	"github.com/okian/ergowatch/internal/adapters/http/site"
	"github.com/okian/ergowatch/internal/adapters/http/swagger"
	"github.com/okian/ergowatch/internal/adapters/notify"
	"github.com/okian/ergowatch/internal/adapters/recorder"
	"github.com/okian/ergowatch/internal/adapters/repository"
	"github.com/okian/ergowatch/internal/adapters/sensor"
	app "github.com/okian/ergowatch/internal/app"
	"github.com/okian/ergowatch/internal/config"
	"github.com/okian/ergowatch/internal/domain/scoring"
	"github.com/okian/ergowatch/pkg/logger"
	"github.com/okian/ergowatch/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize logging
	if err := logger.Init(logger.WithFile(cfg.LogFile)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, loggerInstance); err != nil {
		loggerInstance.Error(ctx, "ergowatch stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	source, err := newSource(cfg)
	if err != nil {
		return err
	}

	store := repository.NewCell()
	defer func() { _ = store.Close() }()

	svc := app.New(
		app.WithLogger(log.Named("sampler")),
		app.WithSource(source),
		app.WithStore(store),
		app.WithClassifier(newClassifier(cfg)),
		app.WithNotifier(newNotifier(cfg, store)),
		app.WithRecorder(newRecorder(cfg)),
		app.WithInterval(cfg.SampleInterval()),
		app.WithCaptureCount(cfg.CaptureCount),
	)

	srv := newHTTPServer(ctx, cfg, svc)
	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newSource builds the configured landmark source.
func newSource(cfg *config.Config) (sensor.Source, error) {
	switch cfg.Source {
	case "http":
		return sensor.NewHTTPSource(cfg.KeypointURL,
			sensor.WithHTTPMinConfidence(cfg.MinConfidence),
			sensor.WithPollTimeout(cfg.PollTimeout()),
		), nil
	default:
		src, err := sensor.NewFileSource(cfg.SourcePath, sensor.WithFileMinConfidence(cfg.MinConfidence))
		if err != nil {
			return nil, fmt.Errorf("frame source: %w", err)
		}
		return src, nil
	}
}

// newClassifier applies the configured threshold pairs. Validation already
// guarantees two ordered values per pair.
func newClassifier(cfg *config.Config) *scoring.Classifier {
	pair := func(v []float64) scoring.Thresholds {
		return scoring.Thresholds{Low: v[0], High: v[1]}
	}
	return scoring.NewClassifier(
		scoring.WithThresholds(scoring.Head, pair(cfg.HeadThresholds)),
		scoring.WithThresholds(scoring.Shoulders, pair(cfg.ShoulderThresholds)),
		scoring.WithThresholds(scoring.Arms, pair(cfg.ArmThresholds)),
		scoring.WithThresholds(scoring.Back, pair(cfg.BackThresholds)),
	)
}

// newNotifier posts to report_url, or delivers in-process when it is empty.
func newNotifier(cfg *config.Config, store repository.Store) notify.Notifier {
	if cfg.ReportURL == "" {
		return notify.NewStoreNotifier(store)
	}
	return notify.NewHTTPNotifier(cfg.ReportURL, notify.WithTimeout(cfg.ReportTimeout()))
}

func newRecorder(cfg *config.Config) *recorder.Recorder {
	return recorder.New(
		recorder.WithHistory(cfg.HistoryCSV),
		recorder.WithCaptureDir(cfg.CaptureDir),
	)
}

// newHTTPServer wires dashboard, docs and API routes.
func newHTTPServer(ctx context.Context, cfg *config.Config, svc *app.Service) *http.Server {
	mux := http.NewServeMux()

	// Dashboard page at / and /dashboard
	site.Register(ctx, mux)

	// API docs under /api-docs
	swagger.Register(ctx, mux)

	// Posture API, stats and metrics
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
