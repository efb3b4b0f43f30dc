package ai

import (
	"testing"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.AIConfig
		wantCode string
		wantType string
	}{
		{
			name:     "missing key",
			cfg:      config.AIConfig{Provider: "gemini", Model: config.DefaultGeminiModel},
			wantCode: errors.ErrCodeMissingAPIKey,
		},
		{
			name:     "unsupported provider",
			cfg:      config.AIConfig{Provider: "llama", APIKey: "k"},
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name:     "invalid base url",
			cfg:      config.AIConfig{Provider: "openai", APIKey: "k", BaseURL: "::not a url"},
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name:     "openai",
			cfg:      config.AIConfig{Provider: "openai", APIKey: "k", Model: config.DefaultOpenAIModel},
			wantType: "openai",
		},
		{
			name:     "gemini",
			cfg:      config.AIConfig{Provider: "gemini", APIKey: "k", Model: config.DefaultGeminiModel},
			wantType: "gemini",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewGenerator(tt.cfg, errors.Discard())
			if tt.wantCode != "" {
				if got := errors.CodeOf(err); got != tt.wantCode {
					t.Fatalf("error code = %q, want %q (err: %v)", got, tt.wantCode, err)
				}
				if gen != nil {
					t.Error("generator should be nil on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer gen.Close()

			switch tt.wantType {
			case "openai":
				if _, ok := gen.(*OpenAIProvider); !ok {
					t.Errorf("got %T, want *OpenAIProvider", gen)
				}
			case "gemini":
				if _, ok := gen.(*GeminiProvider); !ok {
					t.Errorf("got %T, want *GeminiProvider", gen)
				}
			}
			if _, ok := gen.(BreakerReporter); !ok {
				t.Errorf("%T should report breaker stats", gen)
			}
		})
	}
}
