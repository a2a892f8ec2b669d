package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Supported input encodings. The names match config.Encoding values.
const (
	EncodingAuto    = "auto"
	EncodingUTF8    = "utf-8"
	EncodingUTF16LE = "utf-16le"
	EncodingUTF16BE = "utf-16be"
)

// NewDecoder returns a transformer that decodes the named encoding to UTF-8.
// "auto" honours a UTF-8 or UTF-16 byte order mark and otherwise assumes UTF-8.
// UTF-8 input must be valid; invalid bytes fail with encoding.ErrInvalidUTF8
// instead of turning into U+FFFD.
func NewDecoder(name string) (transform.Transformer, error) {
	switch strings.ToLower(name) {
	case "", EncodingAuto:
		return unicode.BOMOverride(encoding.UTF8Validator), nil
	case EncodingUTF8:
		return transform.Chain(encoding.UTF8Validator, unicode.UTF8BOM.NewDecoder()), nil
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), nil
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// LoadFile reads a whole capture export into memory and splits it into lines.
func LoadFile(ctx context.Context, path, enc string) ([]LogLine, error) {
	dec, err := NewDecoder(enc)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening capture file %s: %w", path, err)
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(transform.NewReader(f, dec))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return SplitLines(data, path), nil
}

// SplitLines breaks decoded text into lines. "\n", "\r\n" and a lone "\r"
// all terminate a line. A final terminator does not start an empty line.
func SplitLines(data []byte, source string) []LogLine {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
	if len(data) == 0 {
		return nil
	}

	text := strings.TrimSuffix(string(data), "\n")
	parts := strings.Split(text, "\n")

	lines := make([]LogLine, len(parts))
	for i, p := range parts {
		lines[i] = LogLine{Content: p, Source: source, LineNum: i + 1}
	}
	return lines
}
