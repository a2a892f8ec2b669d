// Package sequence turns parsed capture events into timed LED steps.
package sequence

import (
	"fmt"
	"time"

	"github.com/xmas-show/tracecvt/pkg/parser"
)

// Step is one line of the output sequence.
type Step struct {
	// DelayMs is the rounded time since the previous event ended.
	// It is negative when the capture is out of order.
	DelayMs int64

	// Pattern is the split, LSB-first bit pattern of the event's data.
	Pattern string

	// Event is the capture line this step was built from.
	Event *parser.Event `json:"-"`
}

// Skipped records an event dropped in skip mode.
type Skipped struct {
	Location string
	Reason   string
}

// Result contains the complete conversion output.
type Result struct {
	Steps   []Step
	Skipped []Skipped

	Metadata Metadata
}

// Metadata provides context about the conversion run.
type Metadata struct {
	// SampleRateHz is the rate delays were computed with.
	SampleRateHz float64

	// LinesRead is the number of input lines examined.
	LinesRead int

	// EventsMatched counts lines that matched the event pattern,
	// including those later skipped.
	EventsMatched int

	StartTime time.Time
	EndTime   time.Time
}

// TotalDelayMs returns the sum of all step delays.
func (r *Result) TotalDelayMs() int64 {
	var total int64
	for _, s := range r.Steps {
		total += s.DelayMs
	}
	return total
}

// HasSkips reports whether any matched event was dropped.
func (r *Result) HasSkips() bool {
	return len(r.Skipped) > 0
}

// EventError reports a matched line that could not be converted.
type EventError struct {
	Location string
	Err      error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("%s: %v", e.Location, e.Err)
}

func (e *EventError) Unwrap() error {
	return e.Err
}
