// Package scoring classifies posture angles into ergonomic risk tiers and
// aggregates them into a composite category.
package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ergowatch/internal/domain/model"
)

// Segment identifies one evaluated body region.
type Segment string

// Evaluated segments.
const (
	Head      Segment = "head"
	Shoulders Segment = "shoulders"
	Arms      Segment = "arms"
	Back      Segment = "back"
)

// Segments lists the segments in reporting order.
var Segments = []Segment{Head, Shoulders, Arms, Back} //nolint:gochecknoglobals // fixed anatomy

// Fixed elbow bands scored as acceptable, independent of the configured arm
// thresholds: [ArmAcceptableLowMin, ArmAcceptableLowMax) and
// (ArmAcceptableHighMin, ArmAcceptableHighMax].
const (
	ArmAcceptableLowMin  = 50.0
	ArmAcceptableLowMax  = 70.0
	ArmAcceptableHighMin = 120.0
	ArmAcceptableHighMax = 140.0
)

// Segment codes.
const (
	CodeGood       = 0
	CodeModerate   = 1
	CodeProblem    = 2
	MaxSegmentCode = CodeProblem
)

// Categories, best to worst.
const (
	CategoryExcellent  = 1
	CategoryAcceptable = 2
	CategoryImprovable = 3
	CategoryIncorrect  = 4
)

// Recommendations per category.
const (
	RecommendExcellent  = "Excellent posture"
	RecommendAcceptable = "Acceptable posture"
	RecommendImprovable = "Needs improvement"
	RecommendIncorrect  = "Incorrect posture"
)

// Thresholds is a [Low, High] pair for one segment.
type Thresholds struct {
	Low  float64
	High float64
}

// Valid reports whether the pair is finite and ordered.
func (t Thresholds) Valid() bool {
	return finite(t.Low) && finite(t.High) && t.Low < t.High
}

// Default thresholds per segment, in degrees.
var (
	DefaultHead      = Thresholds{Low: 10, High: 20}  //nolint:gochecknoglobals // defaults
	DefaultShoulders = Thresholds{Low: 5, High: 15}   //nolint:gochecknoglobals // defaults
	DefaultArms      = Thresholds{Low: 70, High: 120} //nolint:gochecknoglobals // defaults
	DefaultBack      = Thresholds{Low: 10, High: 20}  //nolint:gochecknoglobals // defaults
)

type labels [3]string

//nolint:gochecknoglobals // lookup table
var segmentLabels = map[Segment]labels{
	Head:      {"Straight", "Slight", "Pronounced"},
	Shoulders: {"Level", "Slight", "Pronounced"},
	Arms:      {"Optimal", "Acceptable", "Strained"},
	Back:      {"Straight", "Slight", "Inclined"},
}

// Classify maps one segment angle to a code and label.
// Head and shoulders compare the absolute angle; arms and back use it raw.
func Classify(seg Segment, angle float64, t Thresholds) (model.SegmentClassification, error) {
	names, ok := segmentLabels[seg]
	if !ok {
		return model.SegmentClassification{}, fmt.Errorf("%w: %q", ErrUnknownSegment, seg)
	}
	if !finite(angle) {
		return model.SegmentClassification{}, fmt.Errorf("%w: %s angle %v", ErrInvalidAngle, seg, angle)
	}

	var code int
	switch seg {
	case Arms:
		code = armCode(angle, t)
	case Head, Shoulders:
		code = bandCode(math.Abs(angle), t)
	default:
		code = bandCode(angle, t)
	}
	return model.SegmentClassification{Angle: angle, Code: code, Label: names[code]}, nil
}

func bandCode(v float64, t Thresholds) int {
	switch {
	case v < t.Low:
		return CodeGood
	case v < t.High:
		return CodeModerate
	default:
		return CodeProblem
	}
}

func armCode(v float64, t Thresholds) int {
	switch {
	case v >= t.Low && v <= t.High:
		return CodeGood
	case v >= ArmAcceptableLowMin && v < ArmAcceptableLowMax,
		v > ArmAcceptableHighMin && v <= ArmAcceptableHighMax:
		return CodeModerate
	default:
		return CodeProblem
	}
}

// Categorize maps a composite score (sum of four codes) to a category and
// its recommendation.
func Categorize(score int) (int, string) {
	switch {
	case score <= 1:
		return CategoryExcellent, RecommendExcellent
	case score <= 3:
		return CategoryAcceptable, RecommendAcceptable
	case score <= 5:
		return CategoryImprovable, RecommendImprovable
	default:
		return CategoryIncorrect, RecommendIncorrect
	}
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithThresholds overrides the thresholds for one segment. Unknown segments
// and unordered pairs are ignored.
func WithThresholds(seg Segment, t Thresholds) Option {
	return func(c *Classifier) {
		if _, ok := c.thresholds[seg]; ok && t.Valid() {
			c.thresholds[seg] = t
		}
	}
}

// WithClock sets the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// Classifier evaluates a full set of angles against configured thresholds.
type Classifier struct {
	thresholds map[Segment]Thresholds
	now        func() time.Time
}

// NewClassifier creates a classifier with default thresholds.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		thresholds: map[Segment]Thresholds{
			Head:      DefaultHead,
			Shoulders: DefaultShoulders,
			Arms:      DefaultArms,
			Back:      DefaultBack,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Thresholds returns the thresholds in effect for a segment.
func (c *Classifier) Thresholds(seg Segment) (Thresholds, bool) {
	t, ok := c.thresholds[seg]
	return t, ok
}

// Evaluate classifies all four angles and builds a consistent snapshot.
func (c *Classifier) Evaluate(ctx context.Context, a model.Angles) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}

	values := map[Segment]float64{Head: a.Head, Shoulders: a.Shoulders, Arms: a.Arms, Back: a.Back}
	results := make(map[Segment]model.SegmentClassification, len(values))
	score := 0
	for _, seg := range Segments {
		sc, err := Classify(seg, values[seg], c.thresholds[seg])
		if err != nil {
			return model.Snapshot{}, err
		}
		results[seg] = sc
		score += sc.Code
	}

	category, recommendation := Categorize(score)
	return model.Snapshot{
		ID:             uuid.NewString(),
		Head:           results[Head],
		Shoulders:      results[Shoulders],
		Arms:           results[Arms],
		Back:           results[Back],
		Score:          score,
		Category:       category,
		Recommendation: recommendation,
		TakenAt:        c.now(),
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
