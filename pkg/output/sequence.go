package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/xmas-show/tracecvt/pkg/sequence"
)

// FormatStep renders one sequence line: the delay zero-padded to four
// characters (a minus sign counts toward the width), a space, the pattern.
// Wider values are not clamped.
func FormatStep(delayMs int64, pattern string) string {
	return fmt.Sprintf("%04d %s", delayMs, pattern)
}

// RenderSequence joins the formatted steps with newlines. There is no
// trailing newline.
func RenderSequence(steps []sequence.Step) string {
	lines := make([]string, len(steps))
	for i, s := range steps {
		lines[i] = FormatStep(s.DelayMs, s.Pattern)
	}
	return strings.Join(lines, "\n")
}

// WriteSequence writes the rendered steps to path in a single write,
// replacing any existing content.
func WriteSequence(path string, steps []sequence.Step) error {
	if err := os.WriteFile(path, []byte(RenderSequence(steps)), 0644); err != nil { // #nosec G306 -- sequence files are not secret
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
