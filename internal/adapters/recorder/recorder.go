// Package recorder keeps the on-disk trail of evaluated snapshots: an
// append-only CSV history and a rolling set of capture files.
package recorder

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/ergowatch/internal/domain/model"
	"github.com/okian/ergowatch/internal/domain/types"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Header is the first row of a new history file.
var Header = []string{ //nolint:gochecknoglobals // fixed column layout
	"date", "time",
	"head_angle", "head_code",
	"shoulders_angle", "shoulders_code",
	"arms_angle", "arms_code",
	"back_angle", "back_code",
	"category", "recommendation",
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // shared codec

// Option applies a configuration option to the Recorder.
type Option func(*Recorder)

// WithHistory enables the CSV history at path.
func WithHistory(path string) Option {
	return func(r *Recorder) {
		r.historyPath = path
	}
}

// WithCaptureDir enables capture files in dir.
func WithCaptureDir(dir string) Option {
	return func(r *Recorder) {
		r.captureDir = dir
	}
}

// WithClock sets the time source for history rows.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// Recorder writes snapshots to disk. Both outputs are optional.
type Recorder struct {
	mu          sync.Mutex
	historyPath string
	captureDir  string
	now         func() time.Time
}

// Capture is the content of one capture file.
type Capture struct {
	Index    int                 `json:"index"`
	ID       string              `json:"id"`
	TakenAt  time.Time           `json:"taken_at"`
	Angles   map[string]float64  `json:"angles"`
	Snapshot types.PostureUpdate `json:"snapshot"`
	Frame    model.Frame         `json:"frame"`
}

// New creates a recorder.
func New(opts ...Option) *Recorder {
	r := &Recorder{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enabled reports whether any output is configured.
func (r *Recorder) Enabled() bool {
	return r.historyPath != "" || r.captureDir != ""
}

// Record appends a history row and writes the capture file for slot index.
func (r *Recorder) Record(ctx context.Context, f model.Frame, s model.Snapshot, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.historyPath != "" {
		if err := r.appendHistory(s); err != nil {
			return fmt.Errorf("%w: history: %v", ErrRecord, err)
		}
	}
	if r.captureDir != "" {
		if err := r.writeCapture(f, s, index); err != nil {
			return fmt.Errorf("%w: capture: %v", ErrRecord, err)
		}
	}
	return nil
}

func (r *Recorder) appendHistory(s model.Snapshot) error {
	if dir := filepath.Dir(r.historyPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.OpenFile(r.historyPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return err
		}
	}

	at := r.now()
	row := []string{
		at.Format(dateLayout), at.Format(timeLayout),
		formatAngle(s.Head.Angle), strconv.Itoa(s.Head.Code),
		formatAngle(s.Shoulders.Angle), strconv.Itoa(s.Shoulders.Code),
		formatAngle(s.Arms.Angle), strconv.Itoa(s.Arms.Code),
		formatAngle(s.Back.Angle), strconv.Itoa(s.Back.Code),
		strconv.Itoa(s.Category), s.Recommendation,
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (r *Recorder) writeCapture(f model.Frame, s model.Snapshot, index int) error {
	if err := os.MkdirAll(r.captureDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(Capture{
		Index:    index,
		Frame:    f,
		Snapshot: types.UpdateFromSnapshot(s),
		ID:       s.ID,
		TakenAt:  s.TakenAt,
		Angles: map[string]float64{
			"head": s.Head.Angle, "shoulders": s.Shoulders.Angle,
			"arms": s.Arms.Angle, "back": s.Back.Angle,
		},
	}, "", "  ")
	if err != nil {
		return err
	}

	// Write then rename so a reader never sees a half-written slot.
	path := filepath.Join(r.captureDir, CaptureName(index))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// CaptureName is the file name for capture slot index.
func CaptureName(index int) string {
	return fmt.Sprintf("capture_%02d.json", index)
}

func formatAngle(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
