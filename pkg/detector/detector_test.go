package detector

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetector_DetectFromLines_ParallelItems(t *testing.T) {
	lines := []string{
		"0-100 Parallel: Items: 01",
		"100–300 Parallel: Items: FF",
		"300-350 Parallel: Items: 3C",
	}

	result := New().DetectFromLines(lines)

	if !result.HasMatch() || !result.Convertible() {
		t.Fatal("expected a convertible format")
	}
	best := result.BestMatch()
	if best.Format.Name != "Parallel items" {
		t.Errorf("best format = %s, want Parallel items", best.Format.Name)
	}
	if best.Confidence != 1.0 {
		t.Errorf("Confidence = %.2f, want 1.0", best.Confidence)
	}
	if result.EventLines != 3 || result.HyphenLines != 2 || result.EnDashLines != 1 {
		t.Errorf("EventLines/Hyphen/EnDash = %d/%d/%d, want 3/2/1",
			result.EventLines, result.HyphenLines, result.EnDashLines)
	}
	if result.MaxValue != "FF" {
		t.Errorf("MaxValue = %q, want FF", result.MaxValue)
	}
	if result.FirstSample != 0 || result.LastSample != 350 {
		t.Errorf("sample range = %d..%d, want 0..350", result.FirstSample, result.LastSample)
	}
	if len(result.Warnings()) != 0 {
		t.Errorf("Warnings() = %v, want none", result.Warnings())
	}
}

func TestDetector_DetectFromLines_UnsupportedFormat(t *testing.T) {
	lines := []string{
		"0-100 UART: RX: 41",
		"100-200 UART: RX: 42",
		"200-300 Parallel: Items: 01",
	}

	result := New().DetectFromLines(lines)

	best := result.BestMatch()
	if best == nil || best.Format.Name != "UART data" {
		t.Fatalf("best = %+v, want UART data", best)
	}
	if best.Format.Supported {
		t.Error("UART should not be marked supported")
	}
	if best.Format.Hint == "" {
		t.Error("unsupported formats should carry a hint")
	}
	if result.EventLines != 1 {
		t.Errorf("EventLines = %d, want 1", result.EventLines)
	}
}

func TestDetector_DetectFromLines_Warnings(t *testing.T) {
	lines := []string{
		"0-100 Parallel: Items: 01",
		"100-300 Parallel: Items: 1FF",
		"300-200 Parallel: Items: ZZ",
	}

	result := New().DetectFromLines(lines)

	if result.WideValues != 1 || result.MaxValue != "1FF" {
		t.Errorf("WideValues = %d MaxValue = %q", result.WideValues, result.MaxValue)
	}
	if result.InvalidTokens != 1 {
		t.Errorf("InvalidTokens = %d, want 1", result.InvalidTokens)
	}
	if result.OutOfOrder != 1 {
		t.Errorf("OutOfOrder = %d, want 1", result.OutOfOrder)
	}

	warnings := result.Warnings()
	if len(warnings) != 3 {
		t.Fatalf("Warnings() = %v, want 3", warnings)
	}
	if !strings.Contains(warnings[1], "0x1FF") {
		t.Errorf("wide value warning = %q", warnings[1])
	}
}

func TestDetector_NoMatch(t *testing.T) {
	result := New().DetectFromLines([]string{"hello", "", "world"})
	if result.HasMatch() {
		t.Error("expected no match")
	}
	if result.BestMatch() != nil {
		t.Error("BestMatch() should be nil")
	}
	if result.SampledLines != 2 {
		t.Errorf("SampledLines = %d, want 2 (blank lines skipped)", result.SampledLines)
	}
}

func TestDetector_SampleSize(t *testing.T) {
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, "0-1 Parallel: Items: 01")
	}

	if got := New(WithSampleSize(10)).DetectFromLines(lines).SampledLines; got != 10 {
		t.Errorf("SampledLines = %d, want 10", got)
	}
	if got := New(WithSampleSize(0)).DetectFromLines(lines).SampledLines; got != 50 {
		t.Errorf("SampledLines with no limit = %d, want 50", got)
	}
}

func TestDetector_DetectFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.txt")
	content := "\xEF\xBB\xBF0-100 Parallel: Items: 01\r\n100-300 Parallel: Items: FF\r\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := New().DetectFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DetectFromFile() error = %v", err)
	}
	if result.EventLines != 2 {
		t.Errorf("EventLines = %d, want 2", result.EventLines)
	}
}

func TestDetector_DetectFromFile_Missing(t *testing.T) {
	if _, err := New().DetectFromFile(context.Background(), "/nonexistent"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaultFormats_Examples(t *testing.T) {
	for _, f := range DefaultFormats() {
		if !f.Pattern.MatchString(f.Example) {
			t.Errorf("format %s does not match its own example %q", f.Name, f.Example)
		}
	}
}
