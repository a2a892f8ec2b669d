package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xmas-show/tracecvt/pkg/config"
	"github.com/xmas-show/tracecvt/pkg/detector"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <config-file>",
		Short: "Diagnose common configuration issues",
		Long: `Diagnose common configuration issues.

This command checks your configuration file for common problems:
- Config file syntax and values
- Input file existence and readability
- Share of input lines that are convertible events
- Output directory writability
- Webhook definitions (and reachability with -v)

Example:
  tracecvt diagnose show.yaml
  tracecvt diagnose -v show.yaml  # verbose output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			results := runDiagnose(ctx, args[0], opts)
			printDiagnostics(cmd.OutOrStdout(), results, opts)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, configPath string, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	// 1. Check config file existence
	result := checkConfigExists(configPath)
	results = append(results, result)
	if result.Status == "error" {
		return results
	}

	// 2. Parse config file
	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == "error" {
		return results
	}

	// 3. Check the input file
	result = checkInputFile(cfg)
	results = append(results, result)

	// 4. Check the input actually contains convertible events
	if result.Status != "error" {
		results = append(results, checkInputFormat(ctx, cfg, opts)...)
	}

	// 5. Check the output location
	results = append(results, checkOutputFile(cfg))

	// 6. Check webhooks configuration
	results = append(results, checkWebhooks(ctx, cfg, opts)...)

	return results
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'tracecvt detect <capture-file> --write-config show.yaml' to generate a starter config",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = "error"
		result.Message = "Config file is empty"
		result.Suggests = []string{
			"Use 'tracecvt detect <capture-file> --write-config show.yaml' to generate a starter config",
		}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Sample rate: %g Hz", cfg.SampleRateHz),
		fmt.Sprintf("On bad hex: %s", cfg.OnBadHex),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

func checkInputFile(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Input File: %s", cfg.InputFile),
	}

	info, err := os.Stat(cfg.InputFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.Status = "error"
		result.Message = "File does not exist"
		result.Suggests = []string{
			"Export the Parallel decoder annotations from PulseView to this path",
			"Or set input_file / TRACECVT_INPUT_FILE to the exported file",
		}
	case err != nil:
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access file: %v", err)
		result.Suggests = []string{"Check file permissions"}
	case info.IsDir():
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
	case info.Size() == 0:
		result.Status = "warning"
		result.Message = "File is empty (0 bytes); the sequence will be empty"
	default:
		f, err := os.Open(cfg.InputFile) // #nosec G304 -- path comes from the user's config
		if err != nil {
			result.Status = "error"
			result.Message = fmt.Sprintf("File is not readable: %v", err)
			result.Suggests = []string{"Check file permissions"}
			return result
		}
		_ = f.Close()
		result.Status = "ok"
		result.Message = fmt.Sprintf("File exists (%d bytes)", info.Size())
	}

	return result
}

func checkInputFormat(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	result := DiagnosticResult{
		Check: "Capture Format",
	}

	d := detector.New(detector.WithSampleSize(0), detector.WithEncoding(string(cfg.InputEncoding)))
	det, err := d.DetectFromFile(ctx, cfg.InputFile)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot read input: %v", err)
		if strings.Contains(err.Error(), "reading") {
			result.Suggests = []string{"Set input_encoding to match the export (utf-8, utf-16le or utf-16be)"}
		}
		return []DiagnosticResult{result}
	}

	if det.SampledLines == 0 {
		result.Status = "warning"
		result.Message = "Input has no non-blank lines"
		return []DiagnosticResult{result}
	}

	ratio := float64(det.EventLines) / float64(det.SampledLines)

	switch {
	case !det.Convertible():
		result.Status = "error"
		result.Message = fmt.Sprintf("0/%d lines are Parallel items events", det.SampledLines)
		if best := det.BestMatch(); best != nil && best.Format.Hint != "" {
			result.Details = []string{fmt.Sprintf("Looks like %s: %s", best.Format.Name, truncate(best.SampleLine, 80))}
			result.Suggests = []string{best.Format.Hint}
		} else {
			result.Suggests = []string{
				"Expected lines like: 1204-1388 Parallel: Items: 1F",
				"Run 'tracecvt detect " + cfg.InputFile + "' for details",
			}
		}
	case ratio < 0.5:
		result.Status = "warning"
		result.Message = fmt.Sprintf("Only %d/%d lines (%.1f%%) are Parallel items events",
			det.EventLines, det.SampledLines, ratio*100)
		result.Suggests = []string{"Other lines are ignored; check the right decoder row was exported"}
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("%d/%d lines (%.1f%%) are Parallel items events",
			det.EventLines, det.SampledLines, ratio*100)
	}

	if opts.Verbose && det.Convertible() {
		result.Details = append(result.Details,
			fmt.Sprintf("Separators: %d hyphen, %d en-dash", det.HyphenLines, det.EnDashLines),
			fmt.Sprintf("Samples %d to %d (%.1f s at %g Hz)", det.FirstSample, det.LastSample,
				float64(det.LastSample-det.FirstSample)/cfg.SampleRateHz, cfg.SampleRateHz),
		)
	}

	results := []DiagnosticResult{result}

	for _, w := range det.Warnings() {
		status := "warning"
		if det.InvalidTokens > 0 && cfg.OnBadHex == config.ErrorModeAbort && strings.Contains(w, "non-hex") {
			status = "error"
		}
		results = append(results, DiagnosticResult{
			Check:   "Capture Values",
			Status:  status,
			Message: w,
		})
	}

	return results
}

func checkOutputFile(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Output File: %s", cfg.OutputFile),
	}

	dir := filepath.Dir(cfg.OutputFile)
	info, err := os.Stat(dir)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Output directory is not accessible: %v", err)
		result.Suggests = []string{"Create the directory or change output_file"}
		return result
	}
	if !info.IsDir() {
		result.Status = "error"
		result.Message = fmt.Sprintf("%s is not a directory", dir)
		return result
	}

	probe, err := os.CreateTemp(dir, ".tracecvt-probe-*")
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Output directory is not writable: %v", err)
		result.Suggests = []string{"Check directory permissions"}
		return result
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	if existing, err := os.Stat(cfg.OutputFile); err == nil {
		if existing.IsDir() {
			result.Status = "error"
			result.Message = "Output path is a directory"
			return result
		}
		result.Status = "warning"
		result.Message = "Output file exists and will be overwritten"
		return result
	}

	result.Status = "ok"
	result.Message = "Output directory is writable"
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== tracecvt Configuration Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before converting.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nConfiguration is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nConfiguration looks good!")
	}
}

func checkWebhooks(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	// URL, scheme and trigger were already checked by config.Load.
	for _, wh := range cfg.Webhooks {
		result := DiagnosticResult{
			Check:   fmt.Sprintf("Webhook: %s", webhookName(wh)),
			Status:  "ok",
			Message: fmt.Sprintf("Trigger: %s", wh.Trigger),
		}

		if wh.Trigger == config.WebhookTriggerNever {
			result.Status = "warning"
			result.Message = "Trigger is never; this webhook is disabled"
		}

		if opts.Verbose {
			result.Details = []string{
				fmt.Sprintf("URL: %s", wh.URL),
				fmt.Sprintf("Timeout: %s", wh.Timeout),
			}
			if wh.Token != "" {
				result.Details = append(result.Details, "Token: configured")
			}
		}

		results = append(results, result)
	}

	// Optionally test webhook connectivity
	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			result := checkWebhookConnectivity(ctx, wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", webhookName(wh))
			results = append(results, result)
		}
	}

	return results
}

func webhookName(wh config.WebhookConfig) string {
	if wh.Name != "" {
		return wh.Name
	}
	return wh.URL
}

func checkWebhookConnectivity(ctx context.Context, wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	// Just do a HEAD request to check if the endpoint is reachable
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may only accept POST (will work during an actual send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
