package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/xmas-show/tracecvt/pkg/config"
	"github.com/xmas-show/tracecvt/pkg/output"
	"github.com/xmas-show/tracecvt/pkg/parser"
	"github.com/xmas-show/tracecvt/pkg/sequence"
	"github.com/xmas-show/tracecvt/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// ConvertOptions holds command-line options for the convert command.
type ConvertOptions struct {
	Input         string
	Output        string
	SampleRate    float64
	OnBadHex      string
	InputEncoding string

	Report  string
	Verbose bool
	Quiet   bool

	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	opts := &ConvertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [config-file]",
		Short: "Convert a capture export into a sequence file",
		Long: `Convert a PulseView Parallel decoder export into an LED sequence file.

Settings come from the optional config file, then TRACECVT_* environment
variables, then flags. Without a config file the built-in defaults are used
(20000 Hz, 20kHz_rm_logicalyzer_llgpio_30buffer -> ...buffer.txt).

The output file is only written when the whole capture converted; with
--on-bad-hex=skip malformed events are dropped and reported instead.

Exit codes:
  0 - Sequence written
  1 - Sequence written, some events were skipped
  2 - Configuration, I/O or malformed capture error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Capture export to read")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Sequence file to write (overwritten)")
	cmd.Flags().Float64Var(&opts.SampleRate, "sample-rate", 0, "Capture sample rate in Hz")
	cmd.Flags().StringVar(&opts.OnBadHex, "on-bad-hex", "", "Malformed event policy (abort|skip)")
	cmd.Flags().StringVar(&opts.InputEncoding, "input-encoding", "", "Input encoding (auto|utf-8|utf-16le|utf-16be)")
	cmd.Flags().StringVar(&opts.Report, "report", "", "Print a run report to stderr (text|json)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "List skipped events in the report")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "One-line report summary")

	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "always", "When to fire webhook (always|on_skips|never)")

	return cmd
}

func runConvert(cmd *cobra.Command, args []string, opts *ConvertOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	configPath := ""
	if len(args) == 1 {
		configPath = args[0]
	}

	cfg, err := resolveConfig(ctx, cmd, configPath, opts)
	if err != nil {
		return err
	}

	var formatter output.Formatter
	if opts.Report != "" {
		formatter, err = output.NewFormatter(opts.Report, output.FormatOptions{Verbose: opts.Verbose, Quiet: opts.Quiet})
		if err != nil {
			return err
		}
	}

	webhooks, err := collectWebhooks(cfg, opts)
	if err != nil {
		return err
	}

	slog.Debug("converting", "input", cfg.InputFile, "output", cfg.OutputFile,
		"sample_rate_hz", cfg.SampleRateHz, "on_bad_hex", cfg.OnBadHex)

	lines, err := parser.LoadFile(ctx, cfg.InputFile, string(cfg.InputEncoding))
	if err != nil {
		return fmt.Errorf("loading input: %w", err)
	}

	conv, err := sequence.NewConverter(cfg, sequence.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("creating converter: %w", err)
	}

	source := parser.NewLineSource(lines)
	defer source.Close()

	result, err := conv.Convert(ctx, source)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if err := output.WriteSequence(cfg.OutputFile, result.Steps); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Done! Output saved to '%s'.\n", cfg.OutputFile)

	report := output.NewReport(result, configPath, cfg.InputFile, cfg.OutputFile)
	if formatter != nil {
		if err := formatter.Format(ctx, report, cmd.ErrOrStderr()); err != nil {
			return fmt.Errorf("formatting report: %w", err)
		}
	}

	// Webhook errors are logged but don't fail the conversion
	if len(webhooks) > 0 {
		webhook.NewClient().Notify(ctx, webhooks, report)
	}

	if report.HasSkips() {
		ExitCode = 1
	}

	return nil
}

// resolveConfig layers defaults, the optional config file, the environment
// and changed flags, then validates the result once.
func resolveConfig(ctx context.Context, cmd *cobra.Command, configPath string, opts *ConvertOptions) (*config.Config, error) {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.Read(ctx, configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
		cfg.ApplyEnvironmentOverrides()
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputFile = opts.Input
	}
	if flags.Changed("output") {
		cfg.OutputFile = opts.Output
	}
	if flags.Changed("sample-rate") {
		cfg.SampleRateHz = opts.SampleRate
	}
	if flags.Changed("on-bad-hex") {
		cfg.OnBadHex = config.ErrorMode(opts.OnBadHex)
	}
	if flags.Changed("input-encoding") {
		cfg.InputEncoding = config.Encoding(opts.InputEncoding)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *ConvertOptions) ([]config.WebhookConfig, error) {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		wh := config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: config.WebhookTrigger(opts.WebhookTrigger),
		}
		if err := config.ValidateWebhook(&wh); err != nil {
			return nil, fmt.Errorf("webhook-url: %w", err)
		}
		webhooks = append(webhooks, wh)
	}

	return webhooks, nil
}
