package simulate

import "errors"

var (
	// ErrUnhealthy is returned when the server health check fails.
	ErrUnhealthy = errors.New("server unhealthy")
	// ErrMismatch is returned when the served report differs from the posted update.
	ErrMismatch = errors.New("served report does not match update")
)
