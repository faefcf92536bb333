package notify

import "errors"

// Reporting errors.
var (
	ErrReport           = errors.New("report failed")
	ErrUnexpectedStatus = errors.New("unexpected status from dashboard")
)
