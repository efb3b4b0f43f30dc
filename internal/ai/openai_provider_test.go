package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOpenAIConfig(baseURL string) config.AIConfig {
	return config.AIConfig{
		Provider:          "openai",
		Model:             "gpt-test",
		BaseURL:           baseURL,
		APIKey:            "sk-test",
		Timeout:           5 * time.Second,
		MaxRetries:        2,
		Temperature:       0.7,
		MaxTokens:         2000,
		UseSystemPrompts:  true,
		ModelCheckTimeout: time.Second,
	}
}

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	provider, err := NewOpenAIProvider(testOpenAIConfig(srv.URL), errors.Discard())
	require.NoError(t, err)
	provider.retry.baseDelay = time.Millisecond
	return provider
}

const completionBody = `{
  "model": "gpt-test-0613",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "Summary\n- Built X\n- Led Y"}}],
  "usage": {"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150}
}`

func TestOpenAIGenerate(t *testing.T) {
	var received map[string]any
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	})

	out := provider.Generate(context.Background(), Request{
		Operation:    "tailor_resume",
		SystemPrompt: "be precise",
		UserPrompt:   "rewrite this",
	})
	require.NoError(t, out.Err())

	assert.Equal(t, "Summary\n- Built X\n- Led Y", out.Generation.Text)
	assert.Equal(t, "gpt-test-0613", out.Generation.Model)
	assert.Equal(t, &TokenUsage{InputTokens: 120, OutputTokens: 30, TotalTokens: 150}, out.Generation.Usage)

	assert.Equal(t, "gpt-test", received["model"])
	assert.EqualValues(t, 2000, received["max_tokens"])
	assert.InDelta(t, 0.7, received["temperature"], 0.0001)
	messages, ok := received["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": "be precise"}, messages[0])
	assert.Equal(t, map[string]any{"role": "user", "content": "rewrite this"}, messages[1])
}

func TestOpenAIGenerateRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(completionBody))
	})

	out := provider.Generate(context.Background(), Request{UserPrompt: "x"})
	require.NoError(t, out.Err())
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIGenerateFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		reason    FailureReason
		wantCalls int32
	}{
		{"unauthorized is not retried", http.StatusUnauthorized, `{"error":"bad key"}`, ReasonUnauthorized, 1},
		{"rate limited after retries", http.StatusTooManyRequests, `{"error":"slow down"}`, ReasonRateLimited, 3},
		{"bad request", http.StatusBadRequest, `{"error":"bad"}`, ReasonInvalidRequest, 1},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`, ReasonEmptyResponse, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			out := provider.Generate(context.Background(), Request{UserPrompt: "x"})
			assert.False(t, out.OK())
			assert.Equal(t, tt.reason, out.Reason)
			assert.Equal(t, tt.wantCalls, calls.Load())

			var genErr *GenerationError
			require.ErrorAs(t, out.Err(), &genErr)
			assert.Equal(t, tt.reason, genErr.Reason)
		})
	}
}

func TestOpenAIGenerateCanceled(t *testing.T) {
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionBody))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := provider.Generate(ctx, Request{UserPrompt: "x"})
	assert.Equal(t, ReasonCanceled, out.Reason)
}

func TestOpenAIModelInfo(t *testing.T) {
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gpt-test" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"id":"gpt-test","object":"model","owned_by":"openai"}`))
	})

	info := provider.ModelInfo(context.Background())
	assert.True(t, info.Available)
	assert.Equal(t, "gpt-test", info.Name)
	assert.Equal(t, "openai", info.Provider)
	assert.Equal(t, "gpt-test", info.DisplayName)
	assert.Empty(t, info.Error)
}

func TestOpenAIModelInfoUnavailable(t *testing.T) {
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	info := provider.ModelInfo(context.Background())
	assert.False(t, info.Available)
	assert.Contains(t, info.Error, "404")
}

func TestOpenAIBreakerOpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	cfg := testOpenAIConfig(srv.URL)
	cfg.MaxRetries = 0
	cfg.CircuitBreaker = testBreakerConfig()
	provider, err := NewOpenAIProvider(cfg, errors.Discard())
	require.NoError(t, err)

	for range 2 {
		assert.Equal(t, ReasonUnavailable, provider.Generate(context.Background(), Request{UserPrompt: "x"}).Reason)
	}
	assert.False(t, provider.IsHealthy())
	assert.Equal(t, "open", provider.BreakerStats()["state"])

	out := provider.Generate(context.Background(), Request{UserPrompt: "x"})
	assert.Equal(t, ReasonUnavailable, out.Reason)
}
