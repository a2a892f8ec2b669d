// Package config provides configuration loading and validation for tracecvt.
package config

import "time"

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// SampleRateHz is the logic analyzer sampling rate the capture was taken at.
	SampleRateHz float64 `yaml:"sample_rate_hz"`

	// InputFile is the annotation export to convert.
	InputFile string `yaml:"input_file"`

	// OutputFile is where the timed-event sequence is written.
	// Any existing file is overwritten.
	OutputFile string `yaml:"output_file"`

	// OnBadHex selects what happens when a matched line carries a data
	// token that cannot be parsed.
	OnBadHex ErrorMode `yaml:"on_bad_hex,omitempty"`

	// InputEncoding is the text encoding of the input file.
	InputEncoding Encoding `yaml:"input_encoding,omitempty"`

	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// SamplePeriodMs returns the duration of one sample in milliseconds.
func (c *Config) SamplePeriodMs() float64 {
	return 1000.0 / c.SampleRateHz
}

// ErrorMode is the policy for malformed event lines.
type ErrorMode string

const (
	// ErrorModeAbort fails the whole run (default).
	ErrorModeAbort ErrorMode = "abort"
	// ErrorModeSkip drops the event, logs a warning and keeps going.
	ErrorModeSkip ErrorMode = "skip"
)

// Encoding names a supported input text encoding.
type Encoding string

const (
	// EncodingAuto sniffs a byte order mark and falls back to UTF-8.
	EncodingAuto    Encoding = "auto"
	EncodingUTF8    Encoding = "utf-8"
	EncodingUTF16LE Encoding = "utf-16le"
	EncodingUTF16BE Encoding = "utf-16be"
)

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerAlways fires after every successful conversion (default).
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerOnSkips fires only when events were skipped.
	WebhookTriggerOnSkips WebhookTrigger = "on_skips"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines an endpoint notified with the run report.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "always" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
