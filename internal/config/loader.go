package config

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "ERGOWATCH_"
	envConfig  = "ERGOWATCH_CONFIG"
	listSplit  = ","
	thresholds = 2
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if ERGOWATCH_CONFIG is set
//  3. env (prefix ERGOWATCH_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// ERGOWATCH_HEAD_THRESHOLDS -> head_thresholds (flat keys, underscores kept).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			// "10,20" from the environment becomes a threshold pair.
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				stringToFloatSliceHookFunc(listSplit),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
			ZeroFields:       true,
			TagName:          "koanf",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// stringToFloatSliceHookFunc splits a separated string into a []float64.
// YAML lists reach the decoder as slices and pass through untouched.
func stringToFloatSliceHookFunc(sep string) mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.Slice || t.Elem().Kind() != reflect.Float64 {
			return data, nil
		}
		raw := strings.TrimSpace(reflect.ValueOf(data).String())
		if raw == "" {
			return []float64{}, nil
		}
		parts := strings.Split(raw, sep)
		out := make([]float64, 0, len(parts))
		for _, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("parse %q as number: %w", p, err)
			}
			out = append(out, v)
		}
		return out, nil
	}
}

// Validate checks field constraints and that every threshold pair is ordered.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	pairs := map[string][]float64{
		"head_thresholds":     cfg.HeadThresholds,
		"shoulder_thresholds": cfg.ShoulderThresholds,
		"arm_thresholds":      cfg.ArmThresholds,
		"back_thresholds":     cfg.BackThresholds,
	}
	for key, pair := range pairs {
		if len(pair) != thresholds || pair[0] >= pair[1] {
			return fmt.Errorf("%w: %s must be [low, high] with low < high, got %v", ErrInvalidConfig, key, pair)
		}
	}
	return nil
}

// SampleInterval returns the sampling period.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalSeconds) * time.Second
}

// PollTimeout returns the bound for a single keypoint poll.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutMS) * time.Millisecond
}

// ReportTimeout returns the bound for a single report attempt.
func (c *Config) ReportTimeout() time.Duration {
	return time.Duration(c.ReportTimeoutMS) * time.Millisecond
}
