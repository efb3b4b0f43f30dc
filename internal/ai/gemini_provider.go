package ai

import (
	"context"
	"fmt"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"google.golang.org/genai"
)

// GeminiProvider implements TextGenerator for Google Gemini
type GeminiProvider struct {
	*pipeline
	client            *genai.Client
	config            config.AIConfig
	modelBreaker      *CircuitBreaker[*genai.Model]
	modelCheckTimeout time.Duration
}

var _ TextGenerator = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(cfg config.AIConfig, logger *errors.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create Gemini client", err)
	}

	modelBreakerCfg := cfg.CircuitBreaker
	// Model info is less critical, so use more lenient settings
	modelBreakerCfg.MinRequests = max(modelBreakerCfg.MinRequests, 5)
	modelBreakerCfg.FailureThreshold = max(modelBreakerCfg.FailureThreshold, 0.8)

	return &GeminiProvider{
		pipeline:          newPipeline("gemini", cfg, logger),
		client:            client,
		config:            cfg,
		modelBreaker:      NewCircuitBreaker[*genai.Model]("gemini-model", modelBreakerCfg, logger),
		modelCheckTimeout: cfg.ModelCheckTimeout,
	}, nil
}

// Generate implements TextGenerator
func (g *GeminiProvider) Generate(ctx context.Context, req Request) Outcome {
	return g.run(ctx, req, g.generateContent)
}

func (g *GeminiProvider) generateContent(ctx context.Context, req Request) (*Generation, error) {
	genaiConfig := g.buildConfig(req.SystemPrompt)
	result, err := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(req.UserPrompt), genaiConfig)
	if err != nil {
		return nil, err
	}

	return &Generation{
		Text:  result.Text(),
		Model: g.config.Model,
		Usage: extractTokenUsage(result),
	}, nil
}

func (g *GeminiProvider) buildConfig(systemPrompt string) *genai.GenerateContentConfig {
	genaiConfig := &genai.GenerateContentConfig{}
	if g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	if g.config.Temperature > 0 {
		temp := g.config.Temperature
		genaiConfig.Temperature = &temp
	}
	if g.config.MaxTokens > 0 {
		genaiConfig.MaxOutputTokens = int32(g.config.MaxTokens)
	}
	return genaiConfig
}

// ModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) ModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.config.Model, Provider: "gemini"}

	timeout := g.modelCheckTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", "gemini",
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"display_name", info.DisplayName,
		"version", info.Version)
	return info
}

// BreakerStats reports both the generation and the model-info breakers
func (g *GeminiProvider) BreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.pipeline.BreakerStats(),
		"model_operations": g.modelBreaker.Stats(),
		"overall_healthy":  g.IsHealthy(),
	}
}

// IsHealthy reports whether both breakers are closed
func (g *GeminiProvider) IsHealthy() bool {
	return g.pipeline.IsHealthy() && g.modelBreaker.IsHealthy()
}

// Close implements TextGenerator. The genai client holds no resources in
// single-shot usage.
func (g *GeminiProvider) Close() error {
	return nil
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
