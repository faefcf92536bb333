package geometry

import "errors"

// Sentinel kinds for geometry errors.
var (
	// ErrDegenerate reports coincident landmarks: a vector too short to
	// define a direction.
	ErrDegenerate = errors.New("degenerate geometry")
	// ErrMissingLandmark reports a frame without one of the required points.
	ErrMissingLandmark = errors.New("missing landmark")
)
