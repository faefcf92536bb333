// Package types contains the JSON shapes exchanged with the dashboard.
package types

import (
	"time"

	"github.com/okian/ergowatch/internal/domain/model"
)

// TimestampLayout is the dashboard's timestamp format.
const TimestampLayout = "2006-01-02 15:04:05"

// SegmentReport is one segment as shown on the dashboard.
type SegmentReport struct {
	Angle  float64 `json:"angle"`
	Status string  `json:"status"`
	Code   int     `json:"code"`
}

// PostureReport is the latest snapshot served to the dashboard.
type PostureReport struct {
	Head           SegmentReport `json:"head"`
	Shoulders      SegmentReport `json:"shoulders"`
	Arms           SegmentReport `json:"arms"`
	Back           SegmentReport `json:"back"`
	Category       int           `json:"category"`
	Recommendation string        `json:"recommendation"`
	Timestamp      string        `json:"timestamp"`
}

// PostureUpdate is the flat payload the analyzer posts to the dashboard.
type PostureUpdate struct {
	HeadAngle       float64 `json:"head_angle"`
	HeadStatus      string  `json:"head_status" validate:"required"`
	HeadCode        int     `json:"head_code" validate:"gte=0,lte=2"`
	ShouldersAngle  float64 `json:"shoulders_angle"`
	ShouldersStatus string  `json:"shoulders_status" validate:"required"`
	ShouldersCode   int     `json:"shoulders_code" validate:"gte=0,lte=2"`
	ArmsAngle       float64 `json:"arms_angle"`
	ArmsStatus      string  `json:"arms_status" validate:"required"`
	ArmsCode        int     `json:"arms_code" validate:"gte=0,lte=2"`
	BackAngle       float64 `json:"back_angle"`
	BackStatus      string  `json:"back_status" validate:"required"`
	BackCode        int     `json:"back_code" validate:"gte=0,lte=2"`
	Category        int     `json:"category" validate:"gte=1,lte=4"`
	Recommendation  string  `json:"recommendation" validate:"required"`
}

// Score returns the sum of the four segment codes.
func (u PostureUpdate) Score() int {
	return u.HeadCode + u.ShouldersCode + u.ArmsCode + u.BackCode
}

// UpdateFromSnapshot flattens a snapshot for transmission.
func UpdateFromSnapshot(s model.Snapshot) PostureUpdate {
	return PostureUpdate{
		HeadAngle:       s.Head.Angle,
		HeadStatus:      s.Head.Label,
		HeadCode:        s.Head.Code,
		ShouldersAngle:  s.Shoulders.Angle,
		ShouldersStatus: s.Shoulders.Label,
		ShouldersCode:   s.Shoulders.Code,
		ArmsAngle:       s.Arms.Angle,
		ArmsStatus:      s.Arms.Label,
		ArmsCode:        s.Arms.Code,
		BackAngle:       s.Back.Angle,
		BackStatus:      s.Back.Label,
		BackCode:        s.Back.Code,
		Category:        s.Category,
		Recommendation:  s.Recommendation,
	}
}

// Report nests an update and stamps it with the receive time.
func (u PostureUpdate) Report(at time.Time) PostureReport {
	return PostureReport{
		Head:           SegmentReport{Angle: u.HeadAngle, Status: u.HeadStatus, Code: u.HeadCode},
		Shoulders:      SegmentReport{Angle: u.ShouldersAngle, Status: u.ShouldersStatus, Code: u.ShouldersCode},
		Arms:           SegmentReport{Angle: u.ArmsAngle, Status: u.ArmsStatus, Code: u.ArmsCode},
		Back:           SegmentReport{Angle: u.BackAngle, Status: u.BackStatus, Code: u.BackCode},
		Category:       u.Category,
		Recommendation: u.Recommendation,
		Timestamp:      at.Format(TimestampLayout),
	}
}
