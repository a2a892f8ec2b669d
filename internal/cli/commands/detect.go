package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xmas-show/tracecvt/pkg/config"
	"github.com/xmas-show/tracecvt/pkg/detector"
	"github.com/xmas-show/tracecvt/pkg/parser"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output        string
	SampleSize    int
	ShowAll       bool
	WriteConfig   string
	InputEncoding string
	SampleRate    float64
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <capture-file>...",
		Short: "Detect the annotation format of capture exports",
		Long: `Inspect PulseView annotation exports before converting them.

Samples lines from each file and reports which decoder rows it contains,
whether ranges use hyphens or en-dashes, the highest data value and
anything that would make the conversion fail or look wrong.

Optionally generates a starter config for the first file with --write-config.

Example:
  tracecvt detect capture.txt
  tracecvt detect --sample 0 'captures/*.txt'
  tracecvt detect --write-config show.yaml capture.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", 1000, "Number of lines to sample (0 for all)")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all detected formats, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")
	cmd.Flags().StringVar(&opts.InputEncoding, "input-encoding", parser.EncodingAuto, "Input encoding (auto|utf-8|utf-16le|utf-16be)")
	cmd.Flags().Float64Var(&opts.SampleRate, "sample-rate", config.DefaultSampleRateHz, "Sample rate written to the starter config")

	return cmd
}

// fileDetection pairs a capture file with its detection result.
type fileDetection struct {
	File   string
	Result *detector.DetectionResult
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format: %s (use text or json)", opts.Output)
	}

	files, err := parser.ExpandGlobs(args)
	if err != nil {
		return fmt.Errorf("expanding capture files: %w", err)
	}

	d := detector.New(
		detector.WithSampleSize(opts.SampleSize),
		detector.WithEncoding(opts.InputEncoding),
	)

	detections := make([]fileDetection, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("capture file not found: %s", file)
		}

		result, err := d.DetectFromFile(ctx, file)
		if err != nil {
			return fmt.Errorf("detection failed: %w", err)
		}
		detections = append(detections, fileDetection{File: file, Result: result})
	}

	out := cmd.OutOrStdout()

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(out, detections[0], opts); err != nil {
			return err
		}
	}

	if opts.Output == "json" {
		return outputDetectJSON(out, detections, opts)
	}
	for _, det := range detections {
		outputDetectText(out, det, opts)
	}
	return nil
}

func outputDetectText(w io.Writer, det fileDetection, opts *DetectOptions) {
	result := det.Result

	fmt.Fprintln(w, "=== Capture Format Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", det.File)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Convertible events: %d\n", result.EventLines)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No annotation format detected.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: export the annotations of the Parallel decoder from PulseView")
		fmt.Fprintln(w, "(right click the decoder row, Export all annotations for this row).")
		fmt.Fprintln(w)
		return
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Detected Format: %s\n", best.Format.Name)
	fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d lines matched)\n",
		best.Confidence*100, best.MatchCount, result.SampledLines)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sample match:\n  %s\n", best.SampleLine)
	fmt.Fprintln(w)

	if !best.Format.Supported && best.Format.Hint != "" {
		fmt.Fprintf(w, "NOT CONVERTIBLE: %s\n", best.Format.Hint)
		fmt.Fprintln(w)
	}

	if result.Convertible() {
		fmt.Fprintf(w, "Range separators: %d hyphen, %d en-dash\n", result.HyphenLines, result.EnDashLines)
		fmt.Fprintf(w, "Sample span: %d - %d\n", result.FirstSample, result.LastSample)
		if result.MaxValue != "" {
			fmt.Fprintf(w, "Highest value: 0x%s\n", result.MaxValue)
		}
		fmt.Fprintln(w)
	}

	for _, warning := range result.Warnings() {
		fmt.Fprintf(w, "WARNING: %s\n", warning)
	}
	if len(result.Warnings()) > 0 {
		fmt.Fprintln(w)
	}

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Other formats detected ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%.1f%% of lines)\n", i+2, m.Format.Name, m.Confidence*100)
			fmt.Fprintf(w, "   example: %s\n", m.Format.Example)
		}
		fmt.Fprintln(w)
	}
}

// JSONMatch represents a format match in JSON output.
type JSONMatch struct {
	Name       string  `json:"name"`
	Pattern    string  `json:"pattern"`
	Supported  bool    `json:"supported"`
	Confidence float64 `json:"confidence"`
	MatchCount int     `json:"match_count"`
	SampleLine string  `json:"sample_line"`
	Hint       string  `json:"hint,omitempty"`
}

// JSONDetection represents the detection result of one file.
type JSONDetection struct {
	File         string      `json:"file"`
	Matches      []JSONMatch `json:"matches"`
	SampledLines int         `json:"sampled_lines"`
	EventLines   int         `json:"event_lines"`
	HyphenLines  int         `json:"hyphen_lines"`
	EnDashLines  int         `json:"en_dash_lines"`
	MaxValue     string      `json:"max_value,omitempty"`
	FirstSample  int64       `json:"first_sample"`
	LastSample   int64       `json:"last_sample"`
	Warnings     []string    `json:"warnings,omitempty"`
}

func outputDetectJSON(w io.Writer, detections []fileDetection, opts *DetectOptions) error {
	output := make([]JSONDetection, 0, len(detections))

	for _, det := range detections {
		result := det.Result
		jd := JSONDetection{
			File:         det.File,
			Matches:      make([]JSONMatch, 0),
			SampledLines: result.SampledLines,
			EventLines:   result.EventLines,
			HyphenLines:  result.HyphenLines,
			EnDashLines:  result.EnDashLines,
			MaxValue:     result.MaxValue,
			FirstSample:  result.FirstSample,
			LastSample:   result.LastSample,
			Warnings:     result.Warnings(),
		}

		matches := result.Matches
		if !opts.ShowAll && len(matches) > 1 {
			matches = matches[:1] // Only show best match
		}
		for _, m := range matches {
			jd.Matches = append(jd.Matches, JSONMatch{
				Name:       m.Format.Name,
				Pattern:    m.Format.PatternStr,
				Supported:  m.Format.Supported,
				Confidence: m.Confidence,
				MatchCount: m.MatchCount,
				SampleLine: m.SampleLine,
				Hint:       m.Format.Hint,
			})
		}
		output = append(output, jd)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// writeStarterConfig generates a starter config for a detected capture.
func writeStarterConfig(w io.Writer, det fileDetection, opts *DetectOptions) error {
	if _, err := os.Stat(opts.WriteConfig); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", opts.WriteConfig)
	}

	if !det.Result.Convertible() {
		return fmt.Errorf("cannot generate config: %s has no Parallel items events", det.File)
	}

	data, err := generateStarterConfig(det, opts)
	if err != nil {
		return err
	}

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(opts.WriteConfig, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", opts.WriteConfig)
	return nil
}

// generateStarterConfig renders a YAML config for the capture file.
func generateStarterConfig(det fileDetection, opts *DetectOptions) ([]byte, error) {
	absInput := det.File
	if abs, err := filepath.Abs(det.File); err == nil {
		absInput = abs
	}

	cfg := config.DefaultConfig()
	cfg.SampleRateHz = opts.SampleRate
	cfg.InputFile = absInput
	cfg.OutputFile = absInput + ".txt"
	cfg.InputEncoding = config.Encoding(opts.InputEncoding)
	if det.Result.InvalidTokens > 0 {
		cfg.OnBadHex = config.ErrorModeSkip
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("cannot generate config: %w", err)
	}

	body, err := config.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	header := fmt.Sprintf(`# tracecvt configuration
# Generated by: tracecvt detect
# Detected %d Parallel items event(s), highest value 0x%s
#
# Check sample_rate_hz against the capture settings in PulseView.
# Notify a service after each run:
# webhooks:
#   - name: show-controller
#     url: https://example.com/hooks/sequence
#     trigger: always

`, det.Result.EventLines, det.Result.MaxValue)

	return append([]byte(header), body...), nil
}
