package observability

import (
	"context"
	"fmt"
	"time"

	"resumeforge/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom metrics for resumeforge. The zero value and a nil
// *Metrics are valid and record nothing.
type Metrics struct {
	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Business metrics
	ResumesTailored     metric.Int64Counter
	BulletsSubstituted  metric.Int64Counter
	BulletsDropped      metric.Int64Counter
	SlotsUnfilled       metric.Int64Counter
	DocumentsDownloaded metric.Int64Counter
	SuggestionsServed   metric.Int64Counter
	SubmissionAttempts  metric.Int64Counter

	// Infrastructure metrics
	RateLimitHits metric.Int64Counter
	SessionsSwept metric.Int64Counter
	PromptReloads metric.Int64Counter
}

// NewMetrics creates every instrument on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.AIProcessingTime, err = meter.Float64Histogram(
		"resumeforge_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	if m.AITokenUsage, err = meter.Int64Histogram(
		"resumeforge_ai_token_usage",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&m.AIRequestCount, "resumeforge_ai_requests_total", "Total number of AI requests"},
		{&m.AIErrorCount, "resumeforge_ai_errors_total", "Total number of AI request errors"},
		{&m.ResumesTailored, "resumeforge_resumes_tailored_total", "Total number of resumes tailored"},
		{&m.BulletsSubstituted, "resumeforge_bullets_substituted_total", "Bullet paragraphs rewritten from generated text"},
		{&m.BulletsDropped, "resumeforge_bullets_dropped_total", "Generated bullets left over after every list paragraph was filled"},
		{&m.SlotsUnfilled, "resumeforge_slots_unfilled_total", "List paragraphs that kept their original text"},
		{&m.DocumentsDownloaded, "resumeforge_documents_downloaded_total", "Generated documents downloaded"},
		{&m.SuggestionsServed, "resumeforge_suggestions_total", "Keyword suggestion reports produced"},
		{&m.SubmissionAttempts, "resumeforge_submissions_total", "Browser submission attempts"},
		{&m.RateLimitHits, "resumeforge_rate_limit_hits_total", "Total number of rate limit hits"},
		{&m.SessionsSwept, "resumeforge_sessions_swept_total", "Expired generated documents removed"},
		{&m.PromptReloads, "resumeforge_prompt_reloads_total", "Prompt file reloads"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
		*c.target = counter
	}

	return m, nil
}

// RecordGeneration records one text generation call
func (m *Metrics) RecordGeneration(ctx context.Context, provider, reason string, duration time.Duration, usage *types.TokenUsage) {
	if m == nil || m.AIRequestCount == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("provider", provider),
		attribute.Bool("success", reason == ""),
	}
	m.AIProcessingTime.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))

	if reason != "" {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("reason", reason),
		))
	}

	if usage == nil {
		return
	}
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordReconstruction records the result of a tailoring run
func (m *Metrics) RecordReconstruction(ctx context.Context, mode types.TailorMode, success bool, stats types.ReconstructionStats) {
	if m == nil || m.ResumesTailored == nil {
		return
	}

	modeAttr := metric.WithAttributes(attribute.String("mode", string(mode)))
	m.ResumesTailored.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", string(mode)),
		attribute.Bool("success", success),
	))
	if !success {
		return
	}
	m.BulletsSubstituted.Add(ctx, int64(stats.Substituted), modeAttr)
	m.BulletsDropped.Add(ctx, int64(stats.Dropped), modeAttr)
	m.SlotsUnfilled.Add(ctx, int64(stats.Unfilled), modeAttr)
}

// RecordBusinessMetric increments one of the simple business counters
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	if m == nil {
		return
	}

	var counter metric.Int64Counter
	switch metricType {
	case "document_downloaded":
		counter = m.DocumentsDownloaded
	case "suggestion_served":
		counter = m.SuggestionsServed
	case "submission_attempted":
		counter = m.SubmissionAttempts
	case "prompt_reloaded":
		counter = m.PromptReloads
	}
	if counter == nil {
		return
	}

	attrs := append([]attribute.KeyValue{attribute.Bool("success", success)}, attributes...)
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitHit records a rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, keyType string) {
	if m == nil || m.RateLimitHits == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", keyType)))
}

// RecordSessionsSwept records documents removed by the storage sweeper
func (m *Metrics) RecordSessionsSwept(ctx context.Context, n int) {
	if m == nil || m.SessionsSwept == nil || n == 0 {
		return
	}
	m.SessionsSwept.Add(ctx, int64(n))
}
