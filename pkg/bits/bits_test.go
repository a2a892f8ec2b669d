package bits

import (
	"errors"
	"math/big"
	"testing"
)

func TestSplitPattern(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"01", "1000.0000"},
		{"FF", "1111.1111"},
		{"ff", "1111.1111"},
		{"00", "0000.0000"},
		{"0", "0000.0000"},
		{"80", "0000.0001"},
		{"0F", "1111.0000"},
		{"F0", "0000.1111"},
		{"A5", "1010.0101"},
		{"3C", "0011.1100"},
		{"0001", "1000.0000"},
		{"1FF", "1111.11111"},
		{"100", "0000.00001"},
		{"0x1F", "1111.1000"},
		{"0X_1F", "1111.1000"},
		{"F_F", "1111.1111"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := SplitPattern(tt.token)
			if err != nil {
				t.Fatalf("SplitPattern(%q) error = %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("SplitPattern(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestSplitPattern_WideValueKeepsAllBits(t *testing.T) {
	got, err := SplitPattern("FFFF")
	if err != nil {
		t.Fatalf("SplitPattern() error = %v", err)
	}
	if got != "1111.111111111111" {
		t.Errorf("SplitPattern(FFFF) = %q", got)
	}

	// Larger than uint64 still renders.
	got, err = SplitPattern("10000000000000000")
	if err != nil {
		t.Fatalf("SplitPattern() error = %v", err)
	}
	if len(got) != 4+1+61 {
		t.Errorf("SplitPattern() length = %d, want 66", len(got))
	}
	if got[len(got)-1] != '1' {
		t.Errorf("most significant bit should be last, got %q", got)
	}
}

func TestSplitPattern_Invalid(t *testing.T) {
	tokens := []string{"", "ZZ", "G1", "0x", "_FF", "FF_", "F__F", "0x__F", "-1", "1 2"}

	for _, token := range tokens {
		_, err := SplitPattern(token)
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Errorf("SplitPattern(%q) error = %v, want *FormatError", token, err)
			continue
		}
		if fe.Token != token {
			t.Errorf("FormatError.Token = %q, want %q", fe.Token, token)
		}
	}
}

func TestSplit(t *testing.T) {
	if got := Split(big.NewInt(1)); got != "1000.0000" {
		t.Errorf("Split(1) = %q", got)
	}
	if got := Split(big.NewInt(255)); got != "1111.1111" {
		t.Errorf("Split(255) = %q", got)
	}
}
