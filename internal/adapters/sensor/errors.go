package sensor

import "errors"

// Acquisition errors.
var (
	// ErrNoFrame means the source produced nothing this cycle.
	ErrNoFrame = errors.New("no frame from sensor")
	// ErrNoPerson means a frame arrived but no body was detected in it.
	ErrNoPerson = errors.New("no person detected")
)
