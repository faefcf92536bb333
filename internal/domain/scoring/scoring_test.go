package scoring_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ergowatch/internal/domain/model"
	"github.com/okian/ergowatch/internal/domain/scoring"
)

func TestClassify(t *testing.T) {
	Convey("Given the head thresholds [10,20]", t, func() {
		th := scoring.DefaultHead

		Convey("Then boundaries fall into the next band", func() {
			cases := []struct {
				angle float64
				code  int
				label string
			}{
				{0, 0, "Straight"},
				{9.999, 0, "Straight"},
				{10, 1, "Slight"},
				{19.999, 1, "Slight"},
				{20, 2, "Pronounced"},
				{-15, 1, "Slight"},
				{-25, 2, "Pronounced"},
			}
			for _, c := range cases {
				got, err := scoring.Classify(scoring.Head, c.angle, th)
				So(err, ShouldBeNil)
				So(got.Code, ShouldEqual, c.code)
				So(got.Label, ShouldEqual, c.label)
				So(got.Angle, ShouldEqual, c.angle)
			}
		})
	})

	Convey("Given the shoulder thresholds [5,15]", t, func() {
		got, err := scoring.Classify(scoring.Shoulders, 0, scoring.DefaultShoulders)
		So(err, ShouldBeNil)
		So(got.Code, ShouldEqual, 0)
		So(got.Label, ShouldEqual, "Level")

		got, err = scoring.Classify(scoring.Shoulders, -5, scoring.DefaultShoulders)
		So(err, ShouldBeNil)
		So(got.Code, ShouldEqual, 1)

		got, err = scoring.Classify(scoring.Shoulders, 15, scoring.DefaultShoulders)
		So(err, ShouldBeNil)
		So(got.Label, ShouldEqual, "Pronounced")
	})

	Convey("Given the back thresholds [10,20]", t, func() {
		Convey("Then the raw angle is compared", func() {
			got, err := scoring.Classify(scoring.Back, 0, scoring.DefaultBack)
			So(err, ShouldBeNil)
			So(got.Label, ShouldEqual, "Straight")

			got, err = scoring.Classify(scoring.Back, 12, scoring.DefaultBack)
			So(err, ShouldBeNil)
			So(got.Label, ShouldEqual, "Slight")

			got, err = scoring.Classify(scoring.Back, 20, scoring.DefaultBack)
			So(err, ShouldBeNil)
			So(got.Code, ShouldEqual, 2)
			So(got.Label, ShouldEqual, "Inclined")
		})
	})

	Convey("Given the arm thresholds [70,120]", t, func() {
		th := scoring.DefaultArms

		Convey("Then the optimal range is inclusive and the fixed bands are acceptable", func() {
			cases := []struct {
				angle float64
				code  int
			}{
				{90, 0},
				{70, 0},
				{120, 0},
				{50, 1},
				{69.9, 1},
				{120.1, 1},
				{140, 1},
				{49.9, 2},
				{140.1, 2},
				{180, 2},
			}
			for _, c := range cases {
				got, err := scoring.Classify(scoring.Arms, c.angle, th)
				So(err, ShouldBeNil)
				So(got.Code, ShouldEqual, c.code)
			}
		})

		Convey("When the configured range is narrowed", func() {
			narrow := scoring.Thresholds{Low: 85, High: 95}

			Convey("Then the fixed acceptable bands do not move", func() {
				got, err := scoring.Classify(scoring.Arms, 80, narrow)
				So(err, ShouldBeNil)
				So(got.Code, ShouldEqual, 2)
				So(got.Label, ShouldEqual, "Strained")

				got, err = scoring.Classify(scoring.Arms, 60, narrow)
				So(err, ShouldBeNil)
				So(got.Code, ShouldEqual, 1)
			})
		})
	})

	Convey("Given an invalid input", t, func() {
		Convey("When the angle is NaN", func() {
			_, err := scoring.Classify(scoring.Head, math.NaN(), scoring.DefaultHead)
			So(errors.Is(err, scoring.ErrInvalidAngle), ShouldBeTrue)
		})

		Convey("When the segment is unknown", func() {
			_, err := scoring.Classify(scoring.Segment("knees"), 10, scoring.DefaultHead)
			So(errors.Is(err, scoring.ErrUnknownSegment), ShouldBeTrue)
		})
	})
}

func TestCategorize(t *testing.T) {
	Convey("Given every possible score", t, func() {
		want := []int{1, 1, 2, 2, 3, 3, 4, 4, 4}

		Convey("Then the category is a monotonic step function", func() {
			prev := 0
			for score, cat := range want {
				got, rec := scoring.Categorize(score)
				So(got, ShouldEqual, cat)
				So(got, ShouldBeGreaterThanOrEqualTo, prev)
				So(rec, ShouldNotBeEmpty)
				prev = got
			}
		})

		Convey("Then the extremes carry the expected recommendation", func() {
			_, rec := scoring.Categorize(0)
			So(rec, ShouldEqual, "Excellent posture")
			_, rec = scoring.Categorize(8)
			So(rec, ShouldEqual, "Incorrect posture")
		})
	})
}

func TestClassifierEvaluate(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	Convey("Given a classifier with default thresholds", t, func() {
		c := scoring.NewClassifier(scoring.WithClock(func() time.Time { return fixed }))

		Convey("When all segments are neutral", func() {
			snap, err := c.Evaluate(context.Background(), model.Angles{Head: 0, Shoulders: 0, Arms: 90, Back: 0})

			Convey("Then the snapshot is excellent", func() {
				So(err, ShouldBeNil)
				So(snap.Score, ShouldEqual, 0)
				So(snap.Category, ShouldEqual, 1)
				So(snap.Recommendation, ShouldEqual, "Excellent posture")
				So(snap.Head.Label, ShouldEqual, "Straight")
				So(snap.Shoulders.Label, ShouldEqual, "Level")
				So(snap.Arms.Label, ShouldEqual, "Optimal")
				So(snap.Back.Label, ShouldEqual, "Straight")
				So(snap.ID, ShouldNotBeEmpty)
				So(snap.TakenAt, ShouldEqual, fixed)
			})
		})

		Convey("When all segments are at their worst", func() {
			snap, err := c.Evaluate(context.Background(), model.Angles{Head: 30, Shoulders: 20, Arms: 170, Back: 45})

			Convey("Then the snapshot is incorrect", func() {
				So(err, ShouldBeNil)
				So(snap.Score, ShouldEqual, 8)
				So(snap.Category, ShouldEqual, 4)
				So(snap.Recommendation, ShouldEqual, "Incorrect posture")
			})
		})

		Convey("When an angle is not finite", func() {
			_, err := c.Evaluate(context.Background(), model.Angles{Arms: math.Inf(1)})
			So(errors.Is(err, scoring.ErrInvalidAngle), ShouldBeTrue)
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := c.Evaluate(ctx, model.Angles{Arms: 90})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given custom thresholds", t, func() {
		c := scoring.NewClassifier(
			scoring.WithThresholds(scoring.Head, scoring.Thresholds{Low: 2, High: 4}),
			scoring.WithThresholds(scoring.Back, scoring.Thresholds{Low: 30, High: 10}),
		)

		Convey("Then valid pairs apply and unordered pairs are ignored", func() {
			head, _ := c.Thresholds(scoring.Head)
			So(head, ShouldResemble, scoring.Thresholds{Low: 2, High: 4})
			back, _ := c.Thresholds(scoring.Back)
			So(back, ShouldResemble, scoring.DefaultBack)

			snap, err := c.Evaluate(context.Background(), model.Angles{Head: 5, Arms: 90})
			So(err, ShouldBeNil)
			So(snap.Head.Code, ShouldEqual, 2)
			So(snap.Category, ShouldEqual, 2)
		})
	})
}
