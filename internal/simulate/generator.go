package simulate

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/ergowatch/internal/domain/geometry"
	"github.com/okian/ergowatch/internal/domain/model"
	"github.com/okian/ergowatch/internal/domain/scoring"
	"github.com/okian/ergowatch/internal/domain/types"
)

// Synthetic skeleton dimensions, in pixels.
const (
	frameWidth     = 640
	frameHeight    = 480
	shoulderWidth  = 120
	earDistance    = 50
	upperArmLength = 100
	forearmLength  = 90
	torsoLength    = 200
	visibility     = 0.99
)

// Poses are the built-in scenarios, one per category.
//
//nolint:gochecknoglobals // fixed catalogue
var Poses = []struct {
	Name string
	Pose Pose
}{
	{"upright", Pose{Head: 0, Shoulders: 0, Elbow: 90, Back: 0}},
	{"slight-slouch", Pose{Head: 12, Shoulders: 3, Elbow: 100, Back: 14}},
	{"hunched", Pose{Head: -15, Shoulders: 8, Elbow: 60, Back: 18}},
	{"strained", Pose{Head: 25, Shoulders: 20, Elbow: 150, Back: 30}},
}

// FrameFor builds a pixel-space frame whose extracted angles equal p.
// Head tilt is signed; the other angles are taken as magnitudes.
func FrameFor(p Pose, at time.Time) model.Frame {
	shoulder := point{300, 200}

	s := rad(math.Abs(p.Shoulders))
	rightShoulder := shoulder.add(shoulderWidth*math.Cos(s), -shoulderWidth*math.Sin(s))

	h := rad(p.Head)
	leftEar := point{310, 120}
	rightEar := leftEar.add(earDistance*math.Cos(h), -earDistance*math.Sin(h))

	elbow := shoulder.add(0, upperArmLength)
	e := rad(p.Elbow)
	wrist := elbow.add(forearmLength*math.Sin(e), -forearmLength*math.Cos(e))

	b := rad(math.Abs(p.Back))
	hip := shoulder.add(torsoLength*math.Sin(b), torsoLength*math.Cos(b))

	return model.Frame{
		Width:  frameWidth,
		Height: frameHeight,
		Landmarks: map[string]model.Landmark{
			model.Nose:          point{335, 110}.landmark(),
			model.LeftEar:       leftEar.landmark(),
			model.RightEar:      rightEar.landmark(),
			model.LeftShoulder:  shoulder.landmark(),
			model.RightShoulder: rightShoulder.landmark(),
			model.LeftElbow:     elbow.landmark(),
			model.LeftWrist:     wrist.landmark(),
			model.LeftHip:       hip.landmark(),
		},
		CapturedAt: at,
	}
}

// Scenarios builds every catalogue pose and runs it through the same
// geometry and scoring the sampler uses, so Expected is what a live
// analyzer would post.
func Scenarios(ctx context.Context, c *scoring.Classifier, now time.Time) ([]Scenario, error) {
	out := make([]Scenario, 0, len(Poses))
	for _, entry := range Poses {
		frame := FrameFor(entry.Pose, now)
		pts, err := geometry.FromFrame(frame)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", entry.Name, err)
		}
		angles, err := geometry.Extract(pts)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", entry.Name, err)
		}
		snap, err := c.Evaluate(ctx, angles)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", entry.Name, err)
		}
		out = append(out, Scenario{
			Name:     entry.Name,
			Pose:     entry.Pose,
			Frame:    frame,
			Expected: types.UpdateFromSnapshot(snap),
		})
	}
	return out, nil
}

type point struct{ x, y float64 }

func (p point) add(dx, dy float64) point { return point{p.x + dx, p.y + dy} }

func (p point) landmark() model.Landmark {
	return model.Landmark{X: p.x, Y: p.y, Visibility: visibility}
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
