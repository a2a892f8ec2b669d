// Package output writes sequence files and renders conversion reports.
package output

import (
	"time"

	"github.com/xmas-show/tracecvt/pkg/sequence"
)

// Report summarises one conversion run.
type Report struct {
	Summary Summary

	// Skipped lists events dropped in skip mode.
	Skipped []sequence.Skipped `json:",omitempty"`

	Metadata Metadata
}

// Summary provides aggregate statistics.
type Summary struct {
	// LinesRead is the number of input lines examined.
	LinesRead int

	// EventsMatched is the number of lines that matched the event pattern.
	EventsMatched int

	// StepsWritten is the number of lines in the output sequence.
	StepsWritten int

	// EventsSkipped is the number of matched events that were dropped.
	EventsSkipped int

	// TotalDelayMs is the sum of all step delays, i.e. the show length.
	TotalDelayMs int64
}

// Metadata provides context about the conversion run.
type Metadata struct {
	// ConfigFile is the configuration file used, empty for defaults.
	ConfigFile string `json:",omitempty"`

	InputFile    string
	OutputFile   string
	SampleRateHz float64

	// ConvertedAt is when the conversion finished.
	ConvertedAt time.Time

	// Duration is how long the conversion took.
	Duration time.Duration
}

// NewReport creates a Report from a conversion result.
func NewReport(result *sequence.Result, configFile, inputFile, outputFile string) *Report {
	return &Report{
		Summary: Summary{
			LinesRead:     result.Metadata.LinesRead,
			EventsMatched: result.Metadata.EventsMatched,
			StepsWritten:  len(result.Steps),
			EventsSkipped: len(result.Skipped),
			TotalDelayMs:  result.TotalDelayMs(),
		},
		Skipped: result.Skipped,
		Metadata: Metadata{
			ConfigFile:   configFile,
			InputFile:    inputFile,
			OutputFile:   outputFile,
			SampleRateHz: result.Metadata.SampleRateHz,
			ConvertedAt:  result.Metadata.EndTime,
			Duration:     result.Metadata.EndTime.Sub(result.Metadata.StartTime),
		},
	}
}

// HasSkips returns true if any matched event was dropped.
func (r *Report) HasSkips() bool {
	return r.Summary.EventsSkipped > 0
}
