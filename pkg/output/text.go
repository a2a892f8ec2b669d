package output

import (
	"context"
	"fmt"
	"io"
	"time"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		_, err := fmt.Fprintf(w, "tracecvt: %d steps written, %d skipped, %s total\n",
			report.Summary.StepsWritten,
			report.Summary.EventsSkipped,
			showLength(report.Summary.TotalDelayMs))
		return err
	}

	fmt.Fprintln(w, "=== tracecvt Conversion Report ===")
	fmt.Fprintf(w, "Input:       %s\n", report.Metadata.InputFile)
	fmt.Fprintf(w, "Output:      %s\n", report.Metadata.OutputFile)
	fmt.Fprintf(w, "Sample rate: %g Hz\n", report.Metadata.SampleRateHz)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Lines read:     %d\n", report.Summary.LinesRead)
	fmt.Fprintf(w, "Events matched: %d\n", report.Summary.EventsMatched)
	fmt.Fprintf(w, "Steps written:  %d\n", report.Summary.StepsWritten)
	fmt.Fprintf(w, "Show length:    %s\n", showLength(report.Summary.TotalDelayMs))

	if report.HasSkips() {
		fmt.Fprintf(w, "Skipped:        %d event(s)\n", report.Summary.EventsSkipped)
		if f.opts.Verbose {
			for _, s := range report.Skipped {
				fmt.Fprintf(w, "  - %s: %s\n", s.Location, s.Reason)
			}
		}
	}

	if f.opts.Verbose {
		fmt.Fprintf(w, "Duration:       %s\n", report.Metadata.Duration.Round(time.Millisecond))
	}

	return nil
}

func showLength(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
