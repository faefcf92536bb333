package scoring

import "errors"

// Scoring errors.
var (
	ErrInvalidAngle   = errors.New("invalid angle")
	ErrUnknownSegment = errors.New("unknown segment")
)
