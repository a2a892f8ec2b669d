// tracecvt - Capture to LED sequence converter
//
// tracecvt turns PulseView Parallel decoder exports into the timed-event
// sequence files played back by the LED show sequencer.
package main

import (
	"os"

	"github.com/xmas-show/tracecvt/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
