package ai

import (
	"fmt"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
)

// NewGenerator builds the TextGenerator for cfg.Provider
func NewGenerator(cfg config.AIConfig, logger *errors.Logger) (TextGenerator, error) {
	logger.Debug("Initializing AI provider",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"temperature", cfg.Temperature,
		"max_tokens", cfg.MaxTokens,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries,
		"use_system_prompts", cfg.UseSystemPrompts)

	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			fmt.Sprintf("No API key configured for provider %q", cfg.Provider), nil)
	}

	var provider TextGenerator
	switch cfg.Provider {
	case "gemini":
		gemini, err := NewGeminiProvider(cfg, logger)
		if err != nil {
			return nil, err
		}
		provider = gemini
	case "openai":
		openai, err := NewOpenAIProvider(cfg, logger)
		if err != nil {
			return nil, err
		}
		provider = openai
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	return provider, nil
}
