// Package parser reads logic-analyzer annotation exports and extracts
// parallel-decoder events from them.
package parser

import (
	"context"
	"fmt"
)

// LogLine is one raw line of a capture export.
type LogLine struct {
	// Content is the raw line text, without the line terminator.
	Content string

	// Source is the file path this line came from.
	Source string

	// LineNum is the 1-based line number in the source file.
	LineNum int
}

// Event is a matched "<start>-<end> Parallel: Items: <hex>" line.
type Event struct {
	StartSample int64
	EndSample   int64

	// Hex is the raw data token as captured, not yet validated.
	Hex string

	Source  string
	LineNum int
}

// Location formats the event position as source:line.
func (e *Event) Location() string {
	return Location(e.Source, e.LineNum)
}

// EventSource provides an iterator over matched events.
// Implementations must be safe for sequential access (not concurrent).
type EventSource interface {
	// Next returns the next matched event.
	// Returns io.EOF when no more lines are available.
	// Lines that do not match the event pattern are skipped.
	// A *SampleError is returned for a matched line whose sample indices
	// cannot be represented; the source stays usable after it.
	Next(ctx context.Context) (*Event, error)

	// Close releases any resources held by the source.
	Close() error
}

// SampleError reports a matched line whose sample index overflows int64.
type SampleError struct {
	Source  string
	LineNum int
	Field   string
	Err     error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("%s: invalid %s sample: %v", Location(e.Source, e.LineNum), e.Field, e.Err)
}

func (e *SampleError) Unwrap() error {
	return e.Err
}

// Location formats a position as source:line, or "line N" without a source.
func Location(source string, line int) string {
	if source == "" {
		return fmt.Sprintf("line %d", line)
	}
	return fmt.Sprintf("%s:%d", source, line)
}
