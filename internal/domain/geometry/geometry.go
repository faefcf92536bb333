// Package geometry turns body landmarks into the four posture angles.
package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/okian/ergowatch/internal/domain/model"
)

// MinMagnitude is the shortest vector, in pixels, accepted as a direction.
const MinMagnitude = 1e-6

// Reference directions in image space (y grows downwards).
var (
	up   = r2.Vec{X: 0, Y: -1} //nolint:gochecknoglobals // constant direction
	down = r2.Vec{X: 0, Y: 1}  //nolint:gochecknoglobals // constant direction
)

// Points are the pixel positions the extractor needs.
type Points struct {
	Nose          r2.Vec
	LeftEar       r2.Vec
	RightEar      r2.Vec
	LeftShoulder  r2.Vec
	RightShoulder r2.Vec
	LeftElbow     r2.Vec
	LeftWrist     r2.Vec
	LeftHip       r2.Vec
}

// FromFrame picks the required landmarks out of a frame, scaling normalized
// coordinates to pixels.
func FromFrame(f model.Frame) (Points, error) {
	var p Points
	targets := []struct {
		name string
		dst  *r2.Vec
	}{
		{model.Nose, &p.Nose},
		{model.LeftEar, &p.LeftEar},
		{model.RightEar, &p.RightEar},
		{model.LeftShoulder, &p.LeftShoulder},
		{model.RightShoulder, &p.RightShoulder},
		{model.LeftElbow, &p.LeftElbow},
		{model.LeftWrist, &p.LeftWrist},
		{model.LeftHip, &p.LeftHip},
	}
	for _, t := range targets {
		x, y, ok := f.Pixel(t.name)
		if !ok {
			return Points{}, fmt.Errorf("%w: %s", ErrMissingLandmark, t.name)
		}
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return Points{}, fmt.Errorf("%w: %s is not finite", ErrDegenerate, t.name)
		}
		*t.dst = r2.Vec{X: x, Y: y}
	}
	return p, nil
}

// Extract computes all four angles. It fails with ErrDegenerate when any
// pair of landmarks used as a vector coincides.
func Extract(p Points) (model.Angles, error) {
	head, err := HeadTilt(p.LeftEar, p.RightEar)
	if err != nil {
		return model.Angles{}, err
	}
	shoulders, err := ShoulderLevel(p.LeftShoulder, p.RightShoulder)
	if err != nil {
		return model.Angles{}, err
	}
	arms, err := ElbowAngle(p.LeftShoulder, p.LeftElbow, p.LeftWrist)
	if err != nil {
		return model.Angles{}, err
	}
	back, err := BackLean(p.LeftShoulder, p.LeftHip)
	if err != nil {
		return model.Angles{}, err
	}
	return model.Angles{Head: head, Shoulders: shoulders, Arms: arms, Back: back}, nil
}

// HeadTilt is 90° minus the angle between the ear line (right - left) and
// the upward vertical. A level ear line yields 0; the sign follows the
// direction of the tilt.
func HeadTilt(leftEar, rightEar r2.Vec) (float64, error) {
	u, err := unit(r2.Sub(rightEar, leftEar), "ear vector")
	if err != nil {
		return 0, err
	}
	return 90 - angleBetween(u, up), nil
}

// ShoulderLevel is arcsin(|dy| / distance) between the two shoulders.
func ShoulderLevel(leftShoulder, rightShoulder r2.Vec) (float64, error) {
	d := r2.Sub(rightShoulder, leftShoulder)
	dist := r2.Norm(d)
	if dist < MinMagnitude {
		return 0, fmt.Errorf("%w: shoulder vector", ErrDegenerate)
	}
	return degrees(math.Asin(clip(math.Abs(d.Y)/dist, 0, 1))), nil
}

// ElbowAngle is the joint angle at the elbow, in [0, 180].
func ElbowAngle(shoulder, elbow, wrist r2.Vec) (float64, error) {
	upper, err := unit(r2.Sub(shoulder, elbow), "upper arm vector")
	if err != nil {
		return 0, err
	}
	fore, err := unit(r2.Sub(wrist, elbow), "forearm vector")
	if err != nil {
		return 0, err
	}
	return angleBetween(upper, fore), nil
}

// BackLean is the angle between shoulder->hip and the downward vertical,
// in [0, 180].
func BackLean(shoulder, hip r2.Vec) (float64, error) {
	u, err := unit(r2.Sub(hip, shoulder), "back vector")
	if err != nil {
		return 0, err
	}
	return angleBetween(u, down), nil
}

func unit(v r2.Vec, what string) (r2.Vec, error) {
	if r2.Norm(v) < MinMagnitude {
		return r2.Vec{}, fmt.Errorf("%w: %s", ErrDegenerate, what)
	}
	return r2.Unit(v), nil
}

// angleBetween expects unit vectors.
func angleBetween(a, b r2.Vec) float64 {
	return degrees(math.Acos(clip(r2.Dot(a, b), -1, 1)))
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
