package commands

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestConvertCommand_Flags(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "capture", sampleCapture)
	output := filepath.Join(dir, "seq.txt")

	out, _, err := execute(t, NewConvertCommand(), "-i", input, "-o", output, "--sample-rate", "20000")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", ExitCode)
	}

	if !strings.Contains(out, "Done! Output saved to '"+output+"'.") {
		t.Errorf("unexpected stdout: %q", out)
	}

	// 100 samples at 20 kHz is 5 ms, then 200 samples since the first end.
	want := "0005 1000.0000\n0010 1111.1111"
	if got := readFile(t, output); got != want {
		t.Errorf("sequence = %q, want %q", got, want)
	}
}

func TestConvertCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "capture", "0-10 Parallel: Items: 80\n20-30 Parallel: Items: 03\n")
	output := filepath.Join(dir, "seq.txt")
	cfgPath := writeFile(t, dir, "show.yaml", `
sample_rate_hz: 1000
input_file: `+input+`
output_file: `+output+`
`)

	if _, _, err := execute(t, NewConvertCommand(), cfgPath); err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	want := "0010 0000.0001\n0020 1100.0000"
	if got := readFile(t, output); got != want {
		t.Errorf("sequence = %q, want %q", got, want)
	}
}

func TestConvertCommand_FlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "capture", "0-10 Parallel: Items: 01\n")
	output := filepath.Join(dir, "seq.txt")
	cfgPath := writeFile(t, dir, "show.yaml", `
sample_rate_hz: 1000
input_file: `+input+`
output_file: `+output+`
`)

	if _, _, err := execute(t, NewConvertCommand(), cfgPath, "--sample-rate", "2000"); err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if got := readFile(t, output); got != "0005 1000.0000" {
		t.Errorf("sequence = %q", got)
	}
}

func TestConvertCommand_FlagsFixInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "capture", "0-10 Parallel: Items: 01\n")
	output := filepath.Join(dir, "seq.txt")
	cfgPath := writeFile(t, dir, "show.yaml", `
sample_rate_hz: 0
on_bad_hex: ignore
input_file: `+input+`
output_file: `+output+`
`)

	if _, _, err := execute(t, NewConvertCommand(), cfgPath); err == nil {
		t.Fatal("expected the config alone to be rejected")
	}

	_, _, err := execute(t, NewConvertCommand(), cfgPath, "--sample-rate", "1000", "--on-bad-hex", "abort")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if got := readFile(t, output); got != "0010 1000.0000" {
		t.Errorf("sequence = %q", got)
	}
}

func TestConvertCommand_InPlace(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "capture", "0-100 Parallel: Items: 01\n100-300 Parallel: Items: FF\n")

	if _, _, err := execute(t, NewConvertCommand(), "-i", path, "-o", path); err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if got := readFile(t, path); got != "0005 1000.0000\n0010 1111.1111" {
		t.Errorf("sequence = %q", got)
	}
}

func TestConvertCommand_Idempotent(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "capture", sampleCapture+"700-650 Parallel: Items: 1FF\n")
	output := filepath.Join(dir, "seq.txt")

	if _, _, err := execute(t, NewConvertCommand(), "-i", input, "-o", output); err != nil {
		t.Fatalf("first convert failed: %v", err)
	}
	first := readFile(t, output)

	if _, _, err := execute(t, NewConvertCommand(), "-i", input, "-o", output); err != nil {
		t.Fatalf("second convert failed: %v", err)
	}
	if second := readFile(t, output); second != first {
		t.Errorf("second run differs:\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestConvertCommand_NonASCIITokenAborts(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "capture", "0-100 Parallel: Items: 0é\n100-300 Parallel: Items: 1µ\n")
	output := filepath.Join(dir, "seq.txt")

	_, _, err := execute(t, NewConvertCommand(), "-i", input, "-o", output)
	if err == nil {
		t.Fatal("expected error for non-hex token")
	}
	if !strings.Contains(err.Error(), "0é") {
		t.Errorf("error should name the whole token, got %v", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("output must not be written after an abort")
	}
}

func TestConvertCommand_MissingInput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "seq.txt")

	_, _, err := execute(t, NewConvertCommand(), "-i", filepath.Join(dir, "missing"), "-o", output)
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("output must not be created when input is missing")
	}
}

func TestConvertCommand_BadHexAborts(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "capture", "0-10 Parallel: Items: 01\n20-30 Parallel: Items: ZZ\n")
	output := filepath.Join(dir, "seq.txt")

	_, _, err := execute(t, NewConvertCommand(), "-i", input, "-o", output)
	if err == nil {
		t.Fatal("expected error for malformed token")
	}
	if !strings.Contains(err.Error(), "ZZ") {
		t.Errorf("error should name the token, got %v", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("output must not be written after an abort")
	}
}

func TestConvertCommand_BadHexSkip(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "capture", "0-10 Parallel: Items: 01\n20-30 Parallel: Items: ZZ\n40-50 Parallel: Items: 02\n")
	output := filepath.Join(dir, "seq.txt")

	_, stderr, err := execute(t, NewConvertCommand(),
		"-i", input, "-o", output, "--sample-rate", "1000", "--on-bad-hex", "skip", "--report", "text", "-q")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode)
	}

	want := "0010 1000.0000\n0040 0100.0000"
	if got := readFile(t, output); got != want {
		t.Errorf("sequence = %q, want %q", got, want)
	}
	if !strings.Contains(stderr, "2 steps written, 1 skipped") {
		t.Errorf("report missing summary: %q", stderr)
	}
}

func TestConvertCommand_JSONReport(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "capture", sampleCapture)
	output := filepath.Join(dir, "seq.txt")

	_, stderr, err := execute(t, NewConvertCommand(), "-i", input, "-o", output, "--report", "json")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	var report map[string]any
	if err := json.Unmarshal([]byte(stderr), &report); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, stderr)
	}
	if _, ok := report["Summary"]; !ok {
		t.Errorf("report missing summary: %v", report)
	}
}

func TestConvertCommand_InvalidOptions(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "capture", sampleCapture)

	tests := []struct {
		name string
		args []string
	}{
		{"bad mode", []string{"-i", input, "-o", input + ".txt", "--on-bad-hex", "ignore"}},
		{"zero rate", []string{"-i", input, "-o", input + ".txt", "--sample-rate", "0"}},
		{"bad report", []string{"-i", input, "-o", input + ".txt", "--report", "xml"}},
		{"bad webhook", []string{"-i", input, "-o", input + ".txt", "--webhook-url", "ftp://host"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := execute(t, NewConvertCommand(), tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConvertCommand_Webhook(t *testing.T) {
	var calls atomic.Int32
	var gotAuth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotAuth.Store(r.Header.Get("Authorization"))
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dir := t.TempDir()
	input := writeFile(t, dir, "capture", sampleCapture)
	output := filepath.Join(dir, "seq.txt")

	_, _, err := execute(t, NewConvertCommand(),
		"-i", input, "-o", output, "--webhook-url", server.URL, "--webhook-token", "secret")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("webhook calls = %d, want 1", calls.Load())
	}
	if auth, _ := gotAuth.Load().(string); auth != "Bearer secret" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestConvertCommand_WebhookOnSkipsNotFired(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dir := t.TempDir()
	input := writeFile(t, dir, "capture", sampleCapture)

	_, _, err := execute(t, NewConvertCommand(),
		"-i", input, "-o", filepath.Join(dir, "seq.txt"), "--webhook-url", server.URL, "--webhook-trigger", "on_skips")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("webhook should not fire without skips, got %d calls", calls.Load())
	}
}

func TestConvertCommand_WebhookFailureDoesNotFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	dir := t.TempDir()
	input := writeFile(t, dir, "capture", sampleCapture)

	_, _, err := execute(t, NewConvertCommand(),
		"-i", input, "-o", filepath.Join(dir, "seq.txt"), "--webhook-url", server.URL)
	if err != nil {
		t.Fatalf("webhook failure must not fail conversion: %v", err)
	}
	if ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", ExitCode)
	}
}
