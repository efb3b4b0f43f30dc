// Package tailor turns a resume and a job description into a regenerated
// resume document. It loads the source paragraphs, asks the text generator
// for a rewrite and writes the result back either into the original layout
// (preserve mode) or into a fresh document (rebuild mode).
package tailor

import (
	"bytes"
	"context"
	"strings"
	"time"

	"resumeforge/internal/ai"
	"resumeforge/internal/document"
	"resumeforge/internal/errors"
	"resumeforge/internal/observability"
	"resumeforge/internal/reconstruct"
	"resumeforge/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Input is one tailoring request
type Input struct {
	Resume         []byte // .docx bytes
	JobDescription string
	Mode           types.TailorMode // empty means the service default
}

// Result is a generated document plus its report
type Result struct {
	Document   []byte
	Paragraphs []types.Paragraph
	Report     types.TailorReport
}

// Service orchestrates tailoring. It is safe for concurrent use.
type Service struct {
	generator   ai.TextGenerator
	prompts     *ai.PromptLibrary
	metrics     *observability.Metrics
	logger      *errors.Logger
	provider    string
	defaultMode types.TailorMode
}

// NewService creates a tailoring service around generator. metrics may be nil.
func NewService(generator ai.TextGenerator, prompts *ai.PromptLibrary, provider string, defaultMode types.TailorMode, metrics *observability.Metrics, logger *errors.Logger) *Service {
	if !defaultMode.Valid() {
		defaultMode = types.ModePreserve
	}
	return &Service{
		generator:   generator,
		prompts:     prompts,
		metrics:     metrics,
		logger:      logger,
		provider:    provider,
		defaultMode: defaultMode,
	}
}

// DefaultMode returns the mode used when Input.Mode is empty
func (s *Service) DefaultMode() types.TailorMode {
	return s.defaultMode
}

// Tailor generates a tailored resume for in.
func (s *Service) Tailor(ctx context.Context, in Input) (*Result, error) {
	mode := in.Mode
	if mode == "" {
		mode = s.defaultMode
	}
	if !mode.Valid() {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Mode must be 'preserve' or 'rebuild'", nil).WithContext("mode", string(mode))
	}
	jobDescription := strings.TrimSpace(in.JobDescription)
	if jobDescription == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Job description is empty", nil)
	}

	tracer := otel.Tracer("resumeforge.tailor")
	ctx, span := tracer.Start(ctx, "tailor.resume")
	defer span.End()
	span.SetAttributes(
		attribute.String("tailor.mode", string(mode)),
		attribute.Int("input.resume_bytes", len(in.Resume)),
		attribute.Int("input.job_length", len(jobDescription)),
	)

	result, err := s.tailor(ctx, in.Resume, jobDescription, mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errors.CodeOf(err))
		s.metrics.RecordReconstruction(ctx, mode, false, types.ReconstructionStats{})
		return nil, err
	}

	stats := result.Report.Stats
	span.SetAttributes(
		attribute.Int("output.paragraphs", stats.Paragraphs),
		attribute.Int("output.substituted", stats.Substituted),
		attribute.Int("output.dropped", stats.Dropped),
		attribute.Int("output.unfilled", stats.Unfilled),
	)
	s.metrics.RecordReconstruction(ctx, mode, true, stats)
	s.logger.Info("Resume tailored",
		"mode", string(mode),
		"paragraphs", stats.Paragraphs,
		"substituted", stats.Substituted,
		"dropped", stats.Dropped,
		"unfilled", stats.Unfilled)

	return result, nil
}

func (s *Service) tailor(ctx context.Context, resume []byte, jobDescription string, mode types.TailorMode) (*Result, error) {
	source, err := document.LoadParagraphs(bytes.NewReader(resume))
	if err != nil {
		return nil, err
	}

	gen, err := s.generate(ctx, s.prompts.Build(jobDescription, document.ParagraphText(source)))
	if err != nil {
		return nil, err
	}

	var result *Result
	switch mode {
	case types.ModeRebuild:
		result, err = rebuild(gen.Text)
	default:
		result, err = preserve(resume, source, gen.Text)
	}
	if err != nil {
		return nil, err
	}

	result.Report.Mode = mode
	result.Report.Model = gen.Model
	result.Report.TokenUsage = gen.Usage
	result.Report.GeneratedText = gen.Text
	result.Report.CompletedAt = time.Now().UTC()
	return result, nil
}

// generate runs the generator and converts a failed Outcome into an AppError
// that still carries the *ai.GenerationError.
func (s *Service) generate(ctx context.Context, req ai.Request) (*ai.Generation, error) {
	start := time.Now()
	outcome := s.generator.Generate(ctx, req)

	var usage *types.TokenUsage
	if outcome.Generation != nil {
		usage = outcome.Generation.Usage
	}
	s.metrics.RecordGeneration(ctx, s.provider, string(outcome.Reason), time.Since(start), usage)

	if err := outcome.Err(); err != nil {
		code := errors.ErrCodeAIServiceFailed
		if outcome.Reason == ai.ReasonTimeout {
			code = errors.ErrCodeAITimeout
		}
		return nil, errors.NewAIError(code, "Text generation failed", err).
			WithContext("reason", string(outcome.Reason))
	}
	return outcome.Generation, nil
}

// preserve splices generated bullets into the original layout
func preserve(original []byte, source []types.Paragraph, generated string) (*Result, error) {
	res := reconstruct.Apply(source, generated)
	doc, err := document.Rewrite(original, res.Paragraphs)
	if err != nil {
		return nil, err
	}
	return &Result{
		Document:   doc,
		Paragraphs: res.Paragraphs,
		Report:     types.TailorReport{Stats: res.Stats()},
	}, nil
}

// rebuild lays the generated text out as a fresh document
func rebuild(generated string) (*Result, error) {
	paragraphs := document.TextParagraphs(generated)
	doc, err := document.Render(paragraphs)
	if err != nil {
		return nil, err
	}
	return &Result{
		Document:   doc,
		Paragraphs: paragraphs,
		Report:     types.TailorReport{Stats: types.ReconstructionStats{Paragraphs: len(paragraphs)}},
	}, nil
}

// Reconstruct substitutes the bullets of replacement into original without
// calling the generator.
func Reconstruct(original []byte, replacement string) (*Result, error) {
	source, err := document.LoadParagraphs(bytes.NewReader(original))
	if err != nil {
		return nil, err
	}
	result, err := preserve(original, source, replacement)
	if err != nil {
		return nil, err
	}
	result.Report.Mode = types.ModePreserve
	result.Report.CompletedAt = time.Now().UTC()
	return result, nil
}
