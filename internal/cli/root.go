// Package cli provides the command-line interface for tracecvt.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xmas-show/tracecvt/internal/cli/commands"
	"github.com/xmas-show/tracecvt/internal/cli/plugins"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	return run(os.Args[1:])
}

func run(args []string) int {
	rootCmd := NewRootCommand()
	commands.ExitCode = 0

	// Unknown first word that is not a flag may be a plugin.
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' && !isBuiltinCommand(rootCmd, args[0]) {
		if pluginPath, err := plugins.FindPlugin(args[0]); err == nil {
			return plugins.Execute(pluginPath, args[1:])
		}
		_, _ = fmt.Fprintln(os.Stderr, plugins.FormatNotFoundError(args[0]))
		return 2
	}

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors prevents Cobra from printing this
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return commands.ExitCode
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "tracecvt",
		Short: "Convert logic-analyzer captures into LED show sequences",
		Long: `tracecvt turns a PulseView annotation export of the Parallel decoder into
a timed-event sequence file for the LED/music sequencer.

Each "<start>-<end> Parallel: Items: <hex>" line becomes one output line
"NNNN BBBB.BBBB": the delay in milliseconds since the previous event ended,
and the data byte as an LSB-first bit pattern split in two nibbles.

PLUGINS:
  Unknown commands are looked up as tracecvt-<command> binaries next to
  tracecvt, in ~/.tracecvt/plugins/ and in PATH.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger(cmd.ErrOrStderr(), logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(commands.NewConvertCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
