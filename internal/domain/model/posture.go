// Package model contains domain models passed between layers.
package model

import "time"

// Landmark names consumed by the angle extractor.
const (
	Nose          = "nose"
	LeftEar       = "left_ear"
	RightEar      = "right_ear"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftElbow     = "left_elbow"
	LeftWrist     = "left_wrist"
	LeftHip       = "left_hip"
)

// RequiredLandmarks lists every landmark a frame must carry to be evaluated.
var RequiredLandmarks = []string{ //nolint:gochecknoglobals // fixed anatomy
	Nose, LeftEar, RightEar, LeftShoulder, RightShoulder, LeftElbow, LeftWrist, LeftHip,
}

// Landmark is a single detected body point.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility,omitempty"`
}

// Frame is one detection result from the keypoint source.
// When Normalized is set, X and Y are in [0,1] and scale by Width and Height.
type Frame struct {
	Width      int                 `json:"width"`
	Height     int                 `json:"height"`
	Normalized bool                `json:"normalized"`
	Landmarks  map[string]Landmark `json:"landmarks"`
	CapturedAt time.Time           `json:"captured_at"`
}

// Pixel returns the named landmark in image-pixel coordinates.
func (f Frame) Pixel(name string) (x, y float64, ok bool) {
	lm, ok := f.Landmarks[name]
	if !ok {
		return 0, 0, false
	}
	if f.Normalized {
		return lm.X * float64(f.Width), lm.Y * float64(f.Height), true
	}
	return lm.X, lm.Y, true
}

// Angles holds the four segment angles of one frame, in degrees.
type Angles struct {
	Head      float64 // lateral head tilt
	Shoulders float64 // shoulder levelness
	Arms      float64 // left elbow angle
	Back      float64 // back lean from vertical
}

// SegmentClassification is the verdict for one body segment.
type SegmentClassification struct {
	Angle float64
	Code  int    // 0 best .. 2 worst
	Label string // human readable tier
}

// Snapshot is the complete result of one evaluation cycle.
// Category and Recommendation are always derived from the four codes.
type Snapshot struct {
	ID             string
	Head           SegmentClassification
	Shoulders      SegmentClassification
	Arms           SegmentClassification
	Back           SegmentClassification
	Score          int
	Category       int
	Recommendation string
	TakenAt        time.Time
}
