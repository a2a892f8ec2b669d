package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a configuration file.
// Values missing from the file keep their defaults.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := Read(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Read parses a configuration file over the defaults and applies environment
// overrides without validating, for callers that layer more settings on top.
func Read(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ApplyEnvironmentOverrides()
	return cfg, nil
}

// Validate checks a configuration for errors and fills in optional defaults.
func Validate(cfg *Config) error {
	if cfg.SampleRateHz <= 0 || math.IsInf(cfg.SampleRateHz, 0) || math.IsNaN(cfg.SampleRateHz) {
		return fmt.Errorf("sample_rate_hz: must be a positive number, got %v", cfg.SampleRateHz)
	}

	if cfg.InputFile == "" {
		return errors.New("input_file: is required")
	}

	if cfg.OutputFile == "" {
		return errors.New("output_file: is required")
	}

	switch cfg.OnBadHex {
	case "":
		cfg.OnBadHex = ErrorModeAbort
	case ErrorModeAbort, ErrorModeSkip:
	default:
		return fmt.Errorf("on_bad_hex: invalid mode %q (must be abort or skip)", cfg.OnBadHex)
	}

	switch cfg.InputEncoding {
	case "":
		cfg.InputEncoding = EncodingAuto
	case EncodingAuto, EncodingUTF8, EncodingUTF16LE, EncodingUTF16BE:
	default:
		return fmt.Errorf("input_encoding: unsupported encoding %q (must be auto, utf-8, utf-16le or utf-16be)", cfg.InputEncoding)
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

// ValidateWebhook checks a single webhook definition and applies its defaults.
func ValidateWebhook(wh *WebhookConfig) error {
	return validateWebhook(wh)
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerAlways
	case WebhookTriggerAlways, WebhookTriggerOnSkips, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be always, on_skips, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}

// Marshal renders a configuration as YAML, used for starter configs.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}
