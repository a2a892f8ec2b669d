package sequence

import (
	"errors"
	"fmt"
	"math"

	"github.com/xmas-show/tracecvt/pkg/bits"
	"github.com/xmas-show/tracecvt/pkg/parser"
)

// Cursor tracks the end sample of the previous converted event.
// The zero value is the state before the first event.
type Cursor struct {
	prevEnd int64
	started bool
}

// PrevEnd returns the sample the next delay is measured from, and false
// when no event has been seen yet.
func (c Cursor) PrevEnd() (int64, bool) {
	return c.prevEnd, c.started
}

// Advance measures the delay in samples from the previous event's end to
// ev's end and returns the cursor positioned at ev's end. The first event
// is measured from its own start sample.
func (c Cursor) Advance(ev *parser.Event) (Cursor, int64) {
	prev := c.prevEnd
	if !c.started {
		prev = ev.StartSample
	}
	return Cursor{prevEnd: ev.EndSample, started: true}, ev.EndSample - prev
}

// ErrDelayRange is returned when a delay does not fit in an int64 millisecond count.
var ErrDelayRange = errors.New("delay out of range")

// DelayMs converts a sample count to milliseconds, rounding halves to even.
func DelayMs(samples int64, periodMs float64) (int64, error) {
	ms := math.RoundToEven(float64(samples) * periodMs)
	// 2^63 is exact in float64; anything at or above it does not fit.
	if math.IsNaN(ms) || ms >= math.MaxInt64 || ms < math.MinInt64 {
		return 0, fmt.Errorf("%w: %d samples at %g ms per sample", ErrDelayRange, samples, periodMs)
	}
	return int64(ms), nil
}

// Next folds one event into the cursor. On error the cursor is returned
// unchanged so a skipped event does not move it.
func (c Cursor) Next(ev *parser.Event, periodMs float64) (Cursor, Step, error) {
	pattern, err := bits.SplitPattern(ev.Hex)
	if err != nil {
		return c, Step{}, &EventError{Location: ev.Location(), Err: err}
	}

	next, samples := c.Advance(ev)
	delay, err := DelayMs(samples, periodMs)
	if err != nil {
		return c, Step{}, &EventError{Location: ev.Location(), Err: err}
	}
	return next, Step{
		DelayMs: delay,
		Pattern: pattern,
		Event:   ev,
	}, nil
}
