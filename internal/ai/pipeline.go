package ai

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var errEmptyResponse = stderrors.New("model returned no text")

// callFunc performs one provider round trip
type callFunc func(ctx context.Context, req Request) (*Generation, error)

// pipeline runs provider calls through tracing, the circuit breaker and
// retries. Both providers share it.
type pipeline struct {
	provider    string
	model       string
	temperature float32
	timeout     time.Duration
	breaker     *CircuitBreaker[*Generation]
	retry       retryPolicy
	logger      *errors.Logger
}

func newPipeline(provider string, cfg config.AIConfig, logger *errors.Logger) *pipeline {
	return &pipeline{
		provider:    provider,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		breaker:     NewCircuitBreaker[*Generation](provider, cfg.CircuitBreaker, logger),
		retry:       newRetryPolicy(cfg.MaxRetries, logger),
		logger:      logger,
	}
}

func (p *pipeline) run(ctx context.Context, req Request, call callFunc) Outcome {
	operation := req.Operation
	if operation == "" {
		operation = "generate"
	}

	tracer := otel.Tracer("resumeforge.ai." + p.provider)
	ctx, span := tracer.Start(ctx, p.provider+"."+operation)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", p.provider),
		attribute.String("ai.model", p.model),
		attribute.Float64("ai.temperature", float64(p.temperature)),
		attribute.Int("input.prompt_length", len(req.UserPrompt)),
	)

	attempt := func(ctx context.Context) (*Generation, error) {
		if p.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}
		return call(ctx, req)
	}

	gen, err := p.breaker.Execute(func() (*Generation, error) {
		return executeWithRetry(ctx, p.retry, operation, attempt)
	})
	if err == nil && (gen == nil || strings.TrimSpace(gen.Text) == "") {
		err = &GenerationError{Reason: ReasonEmptyResponse, Cause: errEmptyResponse}
	}
	if err != nil {
		reason := Classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(reason))
		span.SetAttributes(attribute.Bool("success", false), attribute.String("ai.failure_reason", string(reason)))
		p.logger.LogError(err, "Text generation failed",
			"provider", p.provider,
			"operation", operation,
			"reason", string(reason))
		return Failed(reason, err)
	}

	if gen.Model == "" {
		gen.Model = p.model
	}
	if gen.Usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", gen.Usage.InputTokens),
			attribute.Int64("ai.tokens.output", gen.Usage.OutputTokens),
			attribute.Int64("ai.tokens.total", gen.Usage.TotalTokens),
		)
	}
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.text_length", len(gen.Text)),
	)
	return Succeeded(gen)
}

// BreakerStats returns circuit breaker statistics
func (p *pipeline) BreakerStats() map[string]any {
	stats := p.breaker.Stats()
	stats["healthy"] = p.breaker.IsHealthy()
	return stats
}

// IsHealthy reports whether the breaker is closed
func (p *pipeline) IsHealthy() bool {
	return p.breaker.IsHealthy()
}
