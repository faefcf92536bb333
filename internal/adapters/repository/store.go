// Package repository holds the latest posture report served to the dashboard.
package repository

import (
	"context"

	"github.com/okian/ergowatch/internal/domain/types"
)

// Store provides read/write access to the latest posture report.
type Store interface {
	// Replace overwrites the held report. Last write wins.
	Replace(ctx context.Context, r types.PostureReport) error

	// Latest returns the held report and whether one was ever stored.
	Latest(ctx context.Context) (types.PostureReport, bool)
}
