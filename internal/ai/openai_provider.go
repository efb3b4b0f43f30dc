package ai

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// OpenAIProvider implements TextGenerator for any OpenAI compatible
// chat-completions endpoint
type OpenAIProvider struct {
	*pipeline
	client            *resty.Client
	config            config.AIConfig
	modelCheckTimeout time.Duration
}

var _ TextGenerator = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider talking to cfg.BaseURL
func NewOpenAIProvider(cfg config.AIConfig, logger *errors.Logger) (*OpenAIProvider, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultOpenAIURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Invalid OpenAI base URL", err).
			WithContext("base_url", baseURL)
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &OpenAIProvider{
		pipeline:          newPipeline("openai", cfg, logger),
		client:            client,
		config:            cfg,
		modelCheckTimeout: cfg.ModelCheckTimeout,
	}, nil
}

// Generate implements TextGenerator
func (o *OpenAIProvider) Generate(ctx context.Context, req Request) Outcome {
	return o.run(ctx, req, o.chatCompletion)
}

func (o *OpenAIProvider) chatCompletion(ctx context.Context, req Request) (*Generation, error) {
	messages := make([]map[string]string, 0, 2)
	if o.config.UseSystemPrompts && req.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.SystemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.UserPrompt})

	body := map[string]any{
		"model":    o.config.Model,
		"messages": messages,
	}
	if o.config.MaxTokens > 0 {
		body["max_tokens"] = o.config.MaxTokens
	}
	if o.config.Temperature > 0 {
		body["temperature"] = o.config.Temperature
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 512)}
	}

	payload := resp.String()
	gen := &Generation{
		Text:  gjson.Get(payload, "choices.0.message.content").String(),
		Model: gjson.Get(payload, "model").String(),
	}
	if usage := gjson.Get(payload, "usage"); usage.Exists() {
		gen.Usage = &TokenUsage{
			InputTokens:  usage.Get("prompt_tokens").Int(),
			OutputTokens: usage.Get("completion_tokens").Int(),
			TotalTokens:  usage.Get("total_tokens").Int(),
		}
	}
	return gen, nil
}

// ModelInfo checks the configured model through GET /models/{model}
func (o *OpenAIProvider) ModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: o.config.Model, Provider: "openai"}

	timeout := o.modelCheckTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := o.client.R().
		SetContext(checkCtx).
		SetPathParam("model", o.config.Model).
		Get("/models/{model}")
	if err == nil && resp.IsError() {
		err = &HTTPStatusError{StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 512)}
	}
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		o.logger.Warn("Model availability check failed",
			"model", o.config.Model,
			"provider", "openai",
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = gjson.Get(resp.String(), "id").String()
	info.Version = gjson.Get(resp.String(), "owned_by").String()
	return info
}

// Close implements TextGenerator
func (o *OpenAIProvider) Close() error {
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
