// Package detector inspects logic-analyzer annotation exports before they
// are converted.
package detector

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/xmas-show/tracecvt/pkg/bits"
	"github.com/xmas-show/tracecvt/pkg/parser"
)

// maxByte is the largest value the LED bus can carry.
var maxByte = big.NewInt(0xFF)

// DetectionResult holds the result of analysing a capture export.
type DetectionResult struct {
	Matches      []FormatMatch // Formats that matched, most lines first
	SampledLines int           // Number of non-blank lines examined

	// The remaining fields describe lines of the supported format only.
	EventLines    int
	HyphenLines   int
	EnDashLines   int
	InvalidTokens int    // Data tokens that are not hex
	WideValues    int    // Values above 0xFF
	MaxValue      string // Largest value seen, as upper-case hex
	FirstSample   int64
	LastSample    int64
	OutOfOrder    int // Events whose end precedes the previous end
}

// FormatMatch represents a format that matched with its share of lines.
type FormatMatch struct {
	Format     *AnnotationFormat
	Confidence float64 // 0.0 to 1.0 (share of sampled lines)
	MatchCount int
	SampleLine string
}

// Detector analyses capture exports.
type Detector struct {
	formats    []*AnnotationFormat
	sampleSize int
	encoding   string
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize limits the number of lines examined. Zero means the whole file.
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n >= 0 {
			d.sampleSize = n
		}
	}
}

// WithEncoding sets the input encoding used when reading files.
func WithEncoding(name string) Option {
	return func(d *Detector) {
		d.encoding = name
	}
}

// New creates a new Detector with default formats.
func New(opts ...Option) *Detector {
	d := &Detector{
		formats:    DefaultFormats(),
		sampleSize: 1000,
		encoding:   parser.EncodingAuto,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile analyses a capture export.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := parser.LoadFile(ctx, path, d.encoding)
	if err != nil {
		return nil, err
	}

	contents := make([]string, 0, len(lines))
	for _, l := range lines {
		contents = append(contents, l.Content)
	}
	return d.DetectFromLines(contents), nil
}

// DetectFromLines analyses a slice of raw lines.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{}

	type formatStats struct {
		format     *AnnotationFormat
		matchCount int
		sampleLine string
	}
	stats := make(map[string]*formatStats)

	var maxValue *big.Int
	var prevEnd int64
	haveEvent := false

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if d.sampleSize > 0 && result.SampledLines >= d.sampleSize {
			break
		}
		result.SampledLines++

		for _, format := range d.formats {
			m := format.Pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}

			s := stats[format.Name]
			if s == nil {
				s = &formatStats{format: format, sampleLine: line}
				stats[format.Name] = s
			}
			s.matchCount++

			if !format.Supported {
				break
			}

			result.EventLines++
			if strings.HasPrefix(line[len(m[1]):], "–") {
				result.EnDashLines++
			} else {
				result.HyphenLines++
			}

			start, errStart := strconv.ParseInt(m[1], 10, 64)
			end, errEnd := strconv.ParseInt(m[2], 10, 64)
			if errStart == nil && errEnd == nil {
				if !haveEvent {
					result.FirstSample = start
					haveEvent = true
				} else if end < prevEnd {
					result.OutOfOrder++
				}
				prevEnd = end
				result.LastSample = end
			}

			v, err := bits.ParseHex(m[3])
			if err != nil {
				result.InvalidTokens++
				break
			}
			if v.Cmp(maxByte) > 0 {
				result.WideValues++
			}
			if maxValue == nil || v.Cmp(maxValue) > 0 {
				maxValue = v
			}
			break
		}
	}

	if maxValue != nil {
		result.MaxValue = strings.ToUpper(maxValue.Text(16))
	}

	for _, s := range stats {
		result.Matches = append(result.Matches, FormatMatch{
			Format:     s.format,
			Confidence: float64(s.matchCount) / float64(result.SampledLines),
			MatchCount: s.matchCount,
			SampleLine: s.sampleLine,
		})
	}

	sort.Slice(result.Matches, func(i, j int) bool {
		if result.Matches[i].MatchCount != result.Matches[j].MatchCount {
			return result.Matches[i].MatchCount > result.Matches[j].MatchCount
		}
		if result.Matches[i].Format.Supported != result.Matches[j].Format.Supported {
			return result.Matches[i].Format.Supported
		}
		return result.Matches[i].Format.Name < result.Matches[j].Format.Name
	})

	return result
}

// BestMatch returns the format matching the most lines, or nil if none.
func (r *DetectionResult) BestMatch() *FormatMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one format matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}

// Convertible reports whether the export contains lines tracecvt converts.
func (r *DetectionResult) Convertible() bool {
	return r.EventLines > 0
}

// Warnings lists conditions that make the conversion suspicious.
func (r *DetectionResult) Warnings() []string {
	var warnings []string
	if r.InvalidTokens > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"%d event(s) carry a non-hex data token; conversion aborts unless on_bad_hex is skip", r.InvalidTokens))
	}
	if r.WideValues > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"%d event(s) exceed 0xFF (max 0x%s); their patterns will be wider than 8 bits", r.WideValues, r.MaxValue))
	}
	if r.OutOfOrder > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"%d event(s) end before the previous one; their delays will be negative", r.OutOfOrder))
	}
	return warnings
}
