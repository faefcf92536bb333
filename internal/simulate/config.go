// Package simulate drives a running ergowatch server with synthetic
// postures and checks that the dashboard reflects each one.
package simulate

import (
	"time"

	"github.com/okian/ergowatch/internal/domain/model"
	"github.com/okian/ergowatch/internal/domain/types"
)

// Defaults for the command line.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultRounds  = 3
	DefaultTimeout = 5 * time.Second
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the server
	Rounds     int           // Times every scenario is replayed
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // JSON-lines file receiving the generated frames
	Verbose    bool
}

// Pose is a target set of segment angles, in degrees.
type Pose struct {
	Head      float64
	Shoulders float64
	Elbow     float64
	Back      float64
}

// Scenario is one synthetic posture with the update it should produce.
type Scenario struct {
	Name     string
	Pose     Pose
	Frame    model.Frame
	Expected types.PostureUpdate
}

// Stats holds run statistics.
type Stats struct {
	Posted     int
	Verified   int
	Mismatched int
	Failed     int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
