package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Default values for configuration.
const (
	DefaultSampleRateHz   = 20000
	DefaultInputFile      = "20kHz_rm_logicalyzer_llgpio_30buffer"
	DefaultOutputFile     = "20kHz_rm_logicalyzer_llgpio_30buffer.txt"
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvSampleRateHz = "TRACECVT_SAMPLE_RATE_HZ"
	EnvInputFile    = "TRACECVT_INPUT_FILE"
	EnvOutputFile   = "TRACECVT_OUTPUT_FILE"
	EnvOnBadHex     = "TRACECVT_ON_BAD_HEX"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SampleRateHz:  DefaultSampleRateHz,
		InputFile:     DefaultInputFile,
		OutputFile:    DefaultOutputFile,
		OnBadHex:      ErrorModeAbort,
		InputEncoding: EncodingAuto,
	}
}

// ApplyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvironmentOverrides() {
	if v := os.Getenv(EnvSampleRateHz); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("ignoring invalid sample rate override", "env", EnvSampleRateHz, "value", v)
		} else {
			c.SampleRateHz = rate
		}
	}
	if v := os.Getenv(EnvInputFile); v != "" {
		c.InputFile = v
	}
	if v := os.Getenv(EnvOutputFile); v != "" {
		c.OutputFile = v
	}
	if v := os.Getenv(EnvOnBadHex); v != "" {
		c.OnBadHex = ErrorMode(v)
	}
}
