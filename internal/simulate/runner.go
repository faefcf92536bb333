package simulate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/ergowatch/internal/domain/scoring"
	"github.com/okian/ergowatch/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run posts every scenario Rounds times and verifies the dashboard after
// each post. It fails if any post fails or any report mismatches.
func Run(ctx context.Context, cfg *Config, c *scoring.Classifier) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("simulate")

	log.Info(ctx, "starting posture simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("rounds", cfg.Rounds),
		logger.String("timeout", cfg.Timeout.String()),
		logger.Bool("verbose", cfg.Verbose))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	scenarios, err := Scenarios(ctx, c, stats.StartTime)
	if err != nil {
		return stats, fmt.Errorf("scenario generation failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := SaveFrames(cfg.OutputFile, scenarios); err != nil {
			log.Warn(ctx, "failed to save frames", logger.Error(err))
		}
	}

	var errs []error
	for round := 0; round < cfg.Rounds; round++ {
		for _, sc := range scenarios {
			if err := ctx.Err(); err != nil {
				return finish(stats), err
			}
			if err := client.Post(ctx, sc.Expected); err != nil {
				stats.Failed++
				errs = append(errs, fmt.Errorf("%s: %w", sc.Name, err))
				continue
			}
			stats.Posted++

			report, err := client.Latest(ctx)
			if err != nil {
				stats.Failed++
				errs = append(errs, fmt.Errorf("%s: %w", sc.Name, err))
				continue
			}
			if err := Verify(sc.Expected, report); err != nil {
				stats.Mismatched++
				errs = append(errs, fmt.Errorf("%s: %w", sc.Name, err))
				continue
			}
			stats.Verified++
			if cfg.Verbose {
				log.Info(ctx, "scenario verified",
					logger.String("scenario", sc.Name),
					logger.Int("round", round),
					logger.Int("category", report.Category),
					logger.String("recommendation", report.Recommendation))
			}
		}
	}

	finish(stats)
	log.Info(ctx, "simulation finished",
		logger.Int("posted", stats.Posted),
		logger.Int("verified", stats.Verified),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()))
	return stats, errors.Join(errs...)
}

func finish(stats *Stats) *Stats {
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	return stats
}

// SaveFrames writes the scenario frames as JSON lines, the format the file
// sensor replays.
func SaveFrames(path string, scenarios []Scenario) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	enc := json.NewEncoder(f)
	for _, sc := range scenarios {
		if err := enc.Encode(sc.Frame); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write frame %s: %w", sc.Name, err)
		}
	}
	return f.Close()
}
