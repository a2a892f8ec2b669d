// Package bits renders decoder data tokens as the split, LSB-first bit
// patterns consumed by the LED sequencer.
package bits

import (
	"fmt"
	"math/big"
	"strings"
)

// MinWidth is the zero-padded width of a rendered value.
const MinWidth = 8

// FormatError reports a data token that is not a valid hexadecimal number.
type FormatError struct {
	Token string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid hex value %q", e.Token)
}

// ParseHex parses a base-16 token of any length. An optional 0x prefix and
// single underscores between digits are accepted.
func ParseHex(token string) (*big.Int, error) {
	digits := token
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		digits = strings.TrimPrefix(digits[2:], "_")
	}

	if digits == "" || digits[0] == '_' || digits[len(digits)-1] == '_' || strings.Contains(digits, "__") {
		return nil, &FormatError{Token: token}
	}

	n, ok := new(big.Int).SetString(strings.ReplaceAll(digits, "_", ""), 16)
	if !ok || n.Sign() < 0 {
		return nil, &FormatError{Token: token}
	}
	return n, nil
}

// SplitPattern converts a hex token into its bit pattern: binary, padded to
// at least eight digits, reversed so bit 0 comes first, and split after the
// fourth character. Values wider than a byte keep every bit, so "1FF"
// yields "1111.11111".
func SplitPattern(token string) (string, error) {
	n, err := ParseHex(token)
	if err != nil {
		return "", err
	}
	return Split(n), nil
}

// Split renders an already parsed value the way SplitPattern does.
func Split(n *big.Int) string {
	bin := n.Text(2)
	if pad := MinWidth - len(bin); pad > 0 {
		bin = strings.Repeat("0", pad) + bin
	}

	reversed := []byte(bin)
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}

	return string(reversed[:4]) + "." + string(reversed[4:])
}
