package detector

import (
	"regexp"

	"github.com/xmas-show/tracecvt/pkg/parser"
)

// AnnotationFormat is a known PulseView annotation row layout.
type AnnotationFormat struct {
	Name       string         // Human-readable name
	Pattern    *regexp.Regexp // Compiled regex (set during init)
	PatternStr string         // Capture groups: start, end, data
	Supported  bool           // True if tracecvt converts this format
	Example    string
	Hint       string // What to change in PulseView to get a supported export
}

// DefaultFormats returns the annotation rows recognised by the detector.
// The supported row comes first.
func DefaultFormats() []*AnnotationFormat {
	formats := []*AnnotationFormat{
		{
			Name:       "Parallel items",
			PatternStr: parser.EventPattern.String(),
			Supported:  true,
			Example:    "1204–1388 Parallel: Items: 1F",
		},
		{
			Name:       "Parallel words",
			PatternStr: `(?i)^(\d+)[-–](\d+)\s+Parallel: Words: (\w+)`,
			Example:    "1204-1388 Parallel: Words: 001F",
			Hint:       "export the Items annotation row of the Parallel decoder instead of Words",
		},
		{
			Name:       "UART data",
			PatternStr: `(?i)^(\d+)[-–](\d+)\s+UART: (?:RX|TX)(?: data)?: (\w+)`,
			Example:    "1204-1388 UART: RX: 41",
			Hint:       "the LED bus is parallel; decode the data lines with the Parallel decoder",
		},
		{
			Name:       "SPI data",
			PatternStr: `(?i)^(\d+)[-–](\d+)\s+SPI: (?:MOSI|MISO) data: (\w+)`,
			Example:    "1204-1388 SPI: MOSI data: 41",
			Hint:       "the LED bus is parallel; decode the data lines with the Parallel decoder",
		},
		{
			Name:       "I2C data",
			PatternStr: `(?i)^(\d+)[-–](\d+)\s+I[²2]C: (?:Data|Address) (?:read|write): (\w+)`,
			Example:    "1204-1388 I²C: Data write: 41",
			Hint:       "the LED bus is parallel; decode the data lines with the Parallel decoder",
		},
	}

	for _, f := range formats {
		f.Pattern = regexp.MustCompile(f.PatternStr)
	}

	return formats
}
