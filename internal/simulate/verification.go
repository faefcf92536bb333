package simulate

import (
	"fmt"
	"time"

	"github.com/okian/ergowatch/internal/domain/types"
)

// Verify checks that r is the nested form of u. The timestamp is assigned
// by the server and only has to be present.
func Verify(u types.PostureUpdate, r types.PostureReport) error {
	want := u.Report(time.Time{})
	want.Timestamp = r.Timestamp
	if r.Timestamp == "" {
		return fmt.Errorf("%w: missing timestamp", ErrMismatch)
	}
	segments := []struct {
		name      string
		got, want types.SegmentReport
	}{
		{"head", r.Head, want.Head},
		{"shoulders", r.Shoulders, want.Shoulders},
		{"arms", r.Arms, want.Arms},
		{"back", r.Back, want.Back},
	}
	for _, s := range segments {
		if s.got != s.want {
			return fmt.Errorf("%w: %s got %+v want %+v", ErrMismatch, s.name, s.got, s.want)
		}
	}
	if r.Category != want.Category || r.Recommendation != want.Recommendation {
		return fmt.Errorf("%w: category got %d %q want %d %q",
			ErrMismatch, r.Category, r.Recommendation, want.Category, want.Recommendation)
	}
	return nil
}
