package sequence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xmas-show/tracecvt/pkg/config"
	"github.com/xmas-show/tracecvt/pkg/parser"
)

// Converter folds capture events into a timed step sequence.
type Converter struct {
	sampleRate float64
	periodMs   float64
	mode       config.ErrorMode
	logger     *slog.Logger
}

// ConverterOption configures converter behavior.
type ConverterOption func(*Converter)

// WithErrorMode overrides the configured policy for malformed events.
func WithErrorMode(mode config.ErrorMode) ConverterOption {
	return func(c *Converter) {
		if mode != "" {
			c.mode = mode
		}
	}
}

// WithLogger sets the logger used for skip warnings.
func WithLogger(l *slog.Logger) ConverterOption {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConverter creates a converter from configuration.
func NewConverter(cfg *config.Config, opts ...ConverterOption) (*Converter, error) {
	if cfg.SampleRateHz <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %v", cfg.SampleRateHz)
	}

	c := &Converter{
		sampleRate: cfg.SampleRateHz,
		periodMs:   cfg.SamplePeriodMs(),
		mode:       cfg.OnBadHex,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	switch c.mode {
	case "":
		c.mode = config.ErrorModeAbort
	case config.ErrorModeAbort, config.ErrorModeSkip:
	default:
		return nil, fmt.Errorf("unknown error mode %q", c.mode)
	}

	return c, nil
}

// Convert reads every event from source and returns the resulting steps.
// In abort mode the first malformed event ends the run with an error and no
// partial result.
func (c *Converter) Convert(ctx context.Context, source parser.EventSource) (*Result, error) {
	result := &Result{
		Metadata: Metadata{
			SampleRateHz: c.sampleRate,
			StartTime:    time.Now(),
		},
	}

	var cur Cursor
	for {
		ev, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}

		var sampleErr *parser.SampleError
		if errors.As(err, &sampleErr) {
			result.Metadata.EventsMatched++
			loc := parser.Location(sampleErr.Source, sampleErr.LineNum)
			reason := fmt.Errorf("invalid %s sample: %w", sampleErr.Field, sampleErr.Err)
			if err := c.reject(result, loc, reason); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading capture: %w", err)
		}

		result.Metadata.EventsMatched++

		next, step, err := cur.Next(ev, c.periodMs)
		if err != nil {
			var evErr *EventError
			if !errors.As(err, &evErr) {
				return nil, err
			}
			if err := c.reject(result, evErr.Location, evErr.Err); err != nil {
				return nil, err
			}
			continue
		}

		cur = next
		result.Steps = append(result.Steps, step)
	}

	if lc, ok := source.(interface{ LinesRead() int }); ok {
		result.Metadata.LinesRead = lc.LinesRead()
	}
	result.Metadata.EndTime = time.Now()

	return result, nil
}

// reject applies the error mode to a malformed event.
func (c *Converter) reject(result *Result, loc string, err error) error {
	if c.mode == config.ErrorModeAbort {
		return &EventError{Location: loc, Err: err}
	}

	c.logger.Warn("skipping malformed event", "location", loc, "error", err)
	result.Skipped = append(result.Skipped, Skipped{Location: loc, Reason: err.Error()})
	return nil
}
