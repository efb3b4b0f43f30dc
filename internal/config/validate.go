package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

var (
	validProviders  = []string{"gemini", "openai"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "text"}
	validTailorMode = []string{"preserve", "rebuild"}
)

// Validate checks if the configuration is valid. A missing AI key is not an
// error here: commands that never call a model run without one.
func (c *Config) Validate() error {
	if !slices.Contains(validProviders, c.AI.Provider) {
		return fmt.Errorf("unsupported AI provider: %s (must be 'gemini' or 'openai')", c.AI.Provider)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("AI maxRetries cannot be negative")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("AI temperature must be between 0 and 2, got %v", c.AI.Temperature)
	}
	if err := c.AI.Prompts.validateFiles(); err != nil {
		return err
	}
	if c.AI.Prompts.User != "" && !ValidUserTemplate(c.AI.Prompts.User) {
		return fmt.Errorf("ai.prompts.user must contain exactly two %%s placeholders (job description, resume)")
	}

	if !slices.Contains(validLogLevels, c.App.LogLevel) {
		return fmt.Errorf("invalid log level: %s", c.App.LogLevel)
	}
	if !slices.Contains(validLogFormats, c.App.LogFormat) {
		return fmt.Errorf("invalid log format: %s", c.App.LogFormat)
	}
	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}
	if !slices.Contains(validTailorMode, c.App.TailorMode) {
		return fmt.Errorf("invalid tailor mode: %s (must be 'preserve' or 'rebuild')", c.App.TailorMode)
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if c.Storage.Dir == "" {
		return fmt.Errorf("storage directory is required")
	}
	if c.Storage.TTL < 0 {
		return fmt.Errorf("storage ttl cannot be negative")
	}
	if c.Storage.TTL > 0 && c.Storage.SweepInterval <= 0 {
		return fmt.Errorf("storage sweepInterval must be positive when ttl is set")
	}

	return nil
}

func (c *Config) validateServer() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}
	if c.Server.MaxRequestSize <= 0 {
		return fmt.Errorf("server maxRequestSize must be positive")
	}

	rl := c.Server.RateLimit
	if rl.Enabled {
		if rl.RequestsPerMin <= 0 {
			return fmt.Errorf("rate limit requestsPerMin must be positive")
		}
		if rl.BurstCapacity <= 0 {
			return fmt.Errorf("rate limit burstCapacity must be positive")
		}
		if !rl.ByIP && !rl.ByAPIKey {
			return fmt.Errorf("rate limit needs byIP or byAPIKey")
		}
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}
	return nil
}

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	switch tls.Mode {
	case "disabled":
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}

	sources := []struct {
		name, file, content string
		required            bool
	}{
		{"cert", tls.CertFile, tls.CertContent, true},
		{"key", tls.KeyFile, tls.KeyContent, true},
		{"ca", tls.CAFile, tls.CAContent, tls.Mode == "mutual"},
	}
	for _, s := range sources {
		if s.file != "" && s.content != "" {
			return fmt.Errorf("cannot specify both %sFile and %sContent - choose one", s.name, s.name)
		}
		if s.required && s.file == "" && s.content == "" {
			return fmt.Errorf("TLS %s is required for %s mode (provide either file or content)", s.name, tls.Mode)
		}
	}

	if tls.Mode == "mutual" {
		switch tls.ClientAuthPolicy {
		case "require", "request", "verify", "":
		default:
			return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
		}
	}

	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}

// validateFiles checks that configured prompt files exist and are readable
func (p PromptConfig) validateFiles() error {
	for _, file := range p.Files() {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("prompt file %s is not readable: %w", file, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close prompt file %s: %w", file, err)
		}
	}
	return nil
}

// ValidUserTemplate reports whether a user prompt template has exactly the
// two %s placeholders Build fills in: job description, then resume.
func ValidUserTemplate(template string) bool {
	return strings.Count(template, "%s") == 2
}
