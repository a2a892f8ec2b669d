package parser

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrNotEvent is returned by ParseLine for lines that are not parallel
// decoder items. Callers skip such lines.
var ErrNotEvent = errors.New("not an event line")

// EventPattern matches a PulseView "Parallel" decoder item annotation.
// The separator may be a hyphen or an en-dash (U+2013). The gap before
// "Parallel" accepts Unicode spaces and the data token takes any letters,
// digits and underscores, so a token like "0é" is captured whole and
// rejected by the hex parser rather than cut short.
var EventPattern = regexp.MustCompile(`(?i)^(\d+)[-–](\d+)[\s\p{Z}\x{1c}-\x{1f}\x{85}]+Parallel: Items: ([\p{L}\p{N}_]+)`)

// ParseLine extracts the sample range and data token from one line.
// Surrounding whitespace is ignored and anything after the token is too.
func ParseLine(line string) (*Event, error) {
	m := EventPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil, ErrNotEvent
	}

	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil, &SampleError{Field: "start", Err: err}
	}
	end, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return nil, &SampleError{Field: "end", Err: err}
	}

	return &Event{StartSample: start, EndSample: end, Hex: m[3]}, nil
}

// LineSource implements EventSource over lines already held in memory.
type LineSource struct {
	lines []LogLine
	pos   int
}

// NewLineSource creates an EventSource over the given lines.
func NewLineSource(lines []LogLine) *LineSource {
	return &LineSource{lines: lines}
}

// Next returns the next matched event, skipping lines that do not match.
func (s *LineSource) Next(ctx context.Context) (*Event, error) {
	for s.pos < len(s.lines) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line := s.lines[s.pos]
		s.pos++

		ev, err := ParseLine(line.Content)
		if errors.Is(err, ErrNotEvent) {
			continue
		}

		var sampleErr *SampleError
		if errors.As(err, &sampleErr) {
			sampleErr.Source = line.Source
			sampleErr.LineNum = line.LineNum
			return nil, sampleErr
		}
		if err != nil {
			return nil, err
		}

		ev.Source = line.Source
		ev.LineNum = line.LineNum
		return ev, nil
	}
	return nil, io.EOF
}

// LinesRead returns how many lines have been consumed so far.
func (s *LineSource) LinesRead() int {
	return s.pos
}

// Close releases resources. Lines are held in memory so there is nothing to release.
func (s *LineSource) Close() error {
	s.lines = nil
	return nil
}
