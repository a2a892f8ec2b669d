// Package plugins provides exec-based plugin support for tracecvt.
// Plugins are separate binaries named tracecvt-<command> that are discovered
// and executed when an unknown command is invoked, the way kubectl and git
// handle plugins.
package plugins

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Prefix is prepended to a command name to form the plugin binary name.
const Prefix = "tracecvt-"

// EnvPluginDir overrides the per-user plugin directory.
const EnvPluginDir = "TRACECVT_PLUGIN_DIR"

// KnownPlugins lists plugins that have companion implementations.
// These get special error messages describing what they do.
var KnownPlugins = map[string]string{
	"play": "Plays a sequence file on the LED rig in sync with its music track.",
}

// ErrPluginNotFound is returned when no plugin binary can be located.
var ErrPluginNotFound = errors.New("plugin not found")

// PluginDir returns the per-user plugin directory, or "" if it cannot be
// determined.
func PluginDir() string {
	if dir := os.Getenv(EnvPluginDir); dir != "" {
		return dir
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".tracecvt", "plugins")
	}
	return ""
}

// FindPlugin searches for a plugin binary named tracecvt-<command> in:
//  1. the directory of the tracecvt binary
//  2. PluginDir()
//  3. PATH
func FindPlugin(command string) (string, error) {
	pluginName := Prefix + command

	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if dir := PluginDir(); dir != "" {
		candidate := filepath.Join(dir, pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(pluginName); err == nil {
		return path, nil
	}

	return "", ErrPluginNotFound
}

// Execute runs a plugin with the given arguments, wired to the current
// stdio, and returns the plugin's exit code.
func Execute(pluginPath string, args []string) int {
	cmd := exec.Command(pluginPath, args...) // #nosec G204 -- plugin path comes from FindPlugin
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing plugin: %v\n", err)
		return 1
	}

	return 0
}

// FormatNotFoundError returns the message shown for an unknown command.
func FormatNotFoundError(command string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "unknown command %q for \"tracecvt\"\n", command)

	if info, ok := KnownPlugins[command]; ok {
		fmt.Fprintf(&sb, "\n%q is available as a plugin. %s\n", command, info)
		sb.WriteString("\nInstall the plugin binary as one of:\n")
	} else {
		sb.WriteString("\nIf this is a plugin, install the binary as one of:\n")
	}

	fmt.Fprintf(&sb, "  - %s%s in the same directory as tracecvt\n", Prefix, command)
	fmt.Fprintf(&sb, "  - ~/.tracecvt/plugins/%s%s (or $%s)\n", Prefix, command, EnvPluginDir)
	fmt.Fprintf(&sb, "  - %s%s anywhere in your PATH\n", Prefix, command)

	sb.WriteString("\nRun 'tracecvt --help' for usage.")

	return sb.String()
}

// isExecutable checks if a regular file exists with any execute bit set.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0111 != 0
}
