package sensor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/okian/ergowatch/internal/domain/model"
)

const (
	maxLineBytes   = 1 << 20
	initialLineBuf = 64 * 1024
)

// FileOption applies a configuration option to the FileSource.
type FileOption func(*FileSource)

// WithFileMinConfidence sets the landmark visibility filter. Values outside
// [0,1] are ignored.
func WithFileMinConfidence(v float64) FileOption {
	return func(s *FileSource) {
		if v >= 0 && v <= 1 {
			s.minConfidence = v
		}
	}
}

// WithFileClock sets the time source used to stamp frames without one.
func WithFileClock(now func() time.Time) FileOption {
	return func(s *FileSource) {
		if now != nil {
			s.now = now
		}
	}
}

// FileSource replays JSON-lines frames from a file, starting over at EOF.
type FileSource struct {
	mu            sync.Mutex
	path          string
	file          *os.File
	scanner       *bufio.Scanner
	minConfidence float64
	now           func() time.Time
}

var _ Source = (*FileSource)(nil)

// NewFileSource opens path for replay.
func NewFileSource(path string, opts ...FileOption) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame file: %w", err)
	}
	s := &FileSource{
		path:          path,
		file:          f,
		scanner:       newLineScanner(f),
		minConfidence: DefaultMinConfidence,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Capture returns the next frame in the file.
func (s *FileSource) Capture(ctx context.Context) (model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return model.Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	line, err := s.nextLine()
	if err != nil {
		return model.Frame{}, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}

	frame, err := decodeFrame(line, s.minConfidence, s.now)
	if err != nil {
		return model.Frame{}, fmt.Errorf("%w: decode %s: %v", ErrNoFrame, s.path, err)
	}
	if len(frame.Landmarks) == 0 {
		return model.Frame{}, ErrNoPerson
	}
	return frame, nil
}

// nextLine returns the next non-blank line, rewinding once at EOF. The
// returned slice is only valid until the next call. A line longer than
// maxLineBytes is an error and replay restarts from the top.
func (s *FileSource) nextLine() ([]byte, error) {
	rewound := false
	for {
		if s.scanner.Scan() {
			if trimmed := bytes.TrimSpace(s.scanner.Bytes()); len(trimmed) > 0 {
				return trimmed, nil
			}
			continue
		}
		err := s.scanner.Err()
		if rerr := s.rewind(); rerr != nil {
			return nil, rerr
		}
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("line exceeds %d bytes", maxLineBytes)
		}
		if err != nil {
			return nil, err
		}
		if rewound {
			return nil, fmt.Errorf("%s holds no frames", s.path)
		}
		rewound = true
	}
}

func (s *FileSource) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	s.scanner = newLineScanner(s.file)
	return nil
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, initialLineBuf), maxLineBytes)
	return sc
}

// Close releases the file.
func (s *FileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
