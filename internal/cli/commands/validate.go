package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xmas-show/tracecvt/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a tracecvt configuration file without converting anything.

Checks:
  - YAML syntax
  - Sample rate is a positive number
  - Input and output files are set
  - on_bad_hex and input_encoding values
  - Webhook URLs and triggers
  - Input file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Sample rate:  %g Hz (%g ms per sample)\n", cfg.SampleRateHz, cfg.SamplePeriodMs())
	fmt.Fprintf(out, "  Input file:   %s (%s)\n", cfg.InputFile, cfg.InputEncoding)
	fmt.Fprintf(out, "  Output file:  %s\n", cfg.OutputFile)
	fmt.Fprintf(out, "  On bad hex:   %s\n", cfg.OnBadHex)
	fmt.Fprintf(out, "  Webhooks:     %d\n", len(cfg.Webhooks))

	for i, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}
		fmt.Fprintf(out, "    %d. [%s] %s\n", i+1, wh.Trigger, name)
	}

	// Input existence is a warning only; captures are often exported later.
	if info, err := os.Stat(cfg.InputFile); err != nil {
		fmt.Fprintf(out, "\nWarning: input file not found: %s\n", cfg.InputFile)
	} else if info.IsDir() {
		fmt.Fprintf(out, "\nWarning: input path is a directory: %s\n", cfg.InputFile)
	}

	return nil
}
