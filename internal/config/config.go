// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and the environment.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFile, when set, also writes logs to a size-rotated file.
	LogFile string `koanf:"log_file"`

	// Addr configures the dashboard HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr" validate:"required"`

	// SampleIntervalSeconds is the pause between two sampling cycles.
	SampleIntervalSeconds int `koanf:"sample_interval_seconds" validate:"gt=0"`

	// CaptureCount is the number of capture file slots before names roll over.
	CaptureCount int `koanf:"capture_count" validate:"gt=0"`

	// CaptureDir receives capture_NN.json files. Empty disables them.
	CaptureDir string `koanf:"capture_dir"`

	// HistoryCSV receives one row per snapshot. Empty disables it.
	HistoryCSV string `koanf:"history_csv"`

	// Threshold pairs [low, high] in degrees per segment.
	HeadThresholds     []float64 `koanf:"head_thresholds" validate:"len=2"`
	ShoulderThresholds []float64 `koanf:"shoulder_thresholds" validate:"len=2"`
	ArmThresholds      []float64 `koanf:"arm_thresholds" validate:"len=2"`
	BackThresholds     []float64 `koanf:"back_thresholds" validate:"len=2"`

	// ReportURL is where snapshots are posted. Empty delivers in-process.
	ReportURL string `koanf:"report_url" validate:"omitempty,url"`

	// ReportTimeoutMS bounds a single report attempt.
	ReportTimeoutMS int `koanf:"report_timeout_ms" validate:"gt=0"`

	// Source selects the landmark source: "file" or "http".
	Source string `koanf:"source" validate:"oneof=file http"`

	// SourcePath is the JSON-lines replay file for the "file" source.
	SourcePath string `koanf:"source_path" validate:"required_if=Source file"`

	// KeypointURL is polled by the "http" source.
	KeypointURL string `koanf:"keypoint_url" validate:"required_if=Source http"`

	// PollTimeoutMS bounds a single keypoint poll of the "http" source.
	PollTimeoutMS int `koanf:"poll_timeout_ms" validate:"gt=0"`

	// MinConfidence drops landmarks whose visibility is below it.
	MinConfidence float64 `koanf:"min_confidence" validate:"gte=0,lte=1"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":5000",
		SampleIntervalSeconds: 10,
		CaptureCount:          60,
		CaptureDir:            "captures",
		HistoryCSV:            "posture_history.csv",
		HeadThresholds:        []float64{10, 20},
		ShoulderThresholds:    []float64{5, 15},
		ArmThresholds:         []float64{70, 120},
		BackThresholds:        []float64{10, 20},
		ReportURL:             "",
		ReportTimeoutMS:       2000,
		Source:                "file",
		SourcePath:            "frames.jsonl",
		KeypointURL:           "",
		PollTimeoutMS:         2000,
		MinConfidence:         0.7,
	}
}
