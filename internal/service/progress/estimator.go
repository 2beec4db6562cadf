// Package progress maps free-text job status to a displayed percentage.
//
// The mapping is a display heuristic only. It does not track the backend's
// real progress and successive values may go down.
package progress

import (
	"math/rand"
	"strings"
)

const (
	Floor     = 10.0
	Compiling = 90.0
	Done      = 100.0

	// Page processing shows a random value in [PageMin, PageMax).
	PageMin = 30.0
	PageMax = 70.0
)

// Estimate returns the percentage to display for status.
func Estimate(status string) float64 {
	return EstimateWith(status, rand.Float64)
}

// EstimateWith is Estimate with an explicit source of values in [0,1).
func EstimateWith(status string, rnd func() float64) float64 {
	switch {
	case strings.Contains(status, "Processing Page"):
		return PageMin + rnd()*(PageMax-PageMin)
	case strings.Contains(status, "Compiling"):
		return Compiling
	case status == "Complete":
		return Done
	default:
		return Floor
	}
}
