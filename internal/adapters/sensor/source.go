// Package sensor acquires landmark frames from the keypoint collaborator.
package sensor

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/ergowatch/internal/domain/model"
)

// DefaultMinConfidence is the visibility below which a landmark is dropped.
const DefaultMinConfidence = 0.7

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // shared codec

// Source yields one frame per call.
type Source interface {
	// Capture returns the current frame. It fails with ErrNoFrame when
	// nothing could be acquired and ErrNoPerson when no body is visible.
	Capture(ctx context.Context) (model.Frame, error)
}

// decodeFrame parses one frame and applies the confidence filter.
func decodeFrame(data []byte, minConfidence float64, now func() time.Time) (model.Frame, error) {
	var f model.Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return model.Frame{}, err
	}
	return filterFrame(f, minConfidence, now), nil
}

func filterFrame(f model.Frame, minConfidence float64, now func() time.Time) model.Frame {
	if minConfidence > 0 {
		kept := make(map[string]model.Landmark, len(f.Landmarks))
		for name, lm := range f.Landmarks {
			if lm.Visibility >= minConfidence {
				kept[name] = lm
			}
		}
		f.Landmarks = kept
	}
	if f.CapturedAt.IsZero() {
		f.CapturedAt = now()
	}
	return f
}
