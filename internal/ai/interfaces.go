package ai

import (
	"context"

	"resumeforge/internal/types"
)

// TextGenerator turns a prompt into generated text
type TextGenerator interface {
	// Generate never panics and never returns a bare error; failures are
	// reported through the Outcome's reason code.
	Generate(ctx context.Context, req Request) Outcome

	// ModelInfo checks the readiness and availability of the configured model
	ModelInfo(ctx context.Context) *ModelInfo

	Close() error
}

// BreakerReporter is implemented by generators guarded by a circuit breaker
type BreakerReporter interface {
	BreakerStats() map[string]any
	IsHealthy() bool
}

// Request is a single generation call
type Request struct {
	// Operation names the call in logs and spans, e.g. "tailor_resume"
	Operation    string
	SystemPrompt string
	UserPrompt   string
}

// Generation is the text a model produced for a Request
type Generation struct {
	Text  string
	Model string
	Usage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage = types.TokenUsage

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
