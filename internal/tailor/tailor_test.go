package tailor

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"resumeforge/internal/ai"
	"resumeforge/internal/config"
	"resumeforge/internal/document"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator returns a canned Outcome and remembers the requests it saw
type fakeGenerator struct {
	mu       sync.Mutex
	outcome  ai.Outcome
	requests []ai.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req ai.Request) ai.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.outcome
}

func (f *fakeGenerator) ModelInfo(context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "fake", Available: true}
}

func (f *fakeGenerator) Close() error { return nil }

func sourceParagraphs() []types.Paragraph {
	return []types.Paragraph{
		{Style: "Heading1", Text: "Jane Doe"},
		{Style: document.DefaultStyle, Text: "Backend engineer"},
		{Style: "Heading1", Text: "EXPERIENCE"},
		{Style: "ListBullet", Text: "Wrote services"},
		{Style: "ListBullet", Text: "Fixed bugs"},
		{Style: "ListBullet", Text: "Reviewed code"},
	}
}

func renderSource(t *testing.T) []byte {
	t.Helper()
	data, err := document.Render(sourceParagraphs())
	require.NoError(t, err)
	return data
}

func newTestService(t *testing.T, gen ai.TextGenerator) *Service {
	t.Helper()
	prompts, err := ai.NewPromptLibrary(config.PromptConfig{}, errors.Discard())
	require.NoError(t, err)
	return NewService(gen, prompts, "fake", types.ModePreserve, nil, errors.Discard())
}

func loadResult(t *testing.T, doc []byte) []types.Paragraph {
	t.Helper()
	got, err := document.LoadParagraphs(bytes.NewReader(doc))
	require.NoError(t, err)
	return got
}

func TestTailorPreserve(t *testing.T) {
	gen := &fakeGenerator{outcome: ai.Succeeded(&ai.Generation{
		Text:  "JANE DOE\nSummary rewritten\n- Built Go services\n• Cut latency 40%\n",
		Model: "fake-model",
		Usage: &ai.TokenUsage{InputTokens: 100, OutputTokens: 20, TotalTokens: 120},
	})}
	svc := newTestService(t, gen)

	result, err := svc.Tailor(context.Background(), Input{
		Resume:         renderSource(t),
		JobDescription: "  Looking for a Go engineer  ",
	})
	require.NoError(t, err)

	want := sourceParagraphs()
	want[3].Text = "Built Go services"
	want[4].Text = "Cut latency 40%"
	if diff := cmp.Diff(want, loadResult(t, result.Document)); diff != "" {
		t.Errorf("tailored document mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, result.Paragraphs); diff != "" {
		t.Errorf("result paragraphs mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, types.ModePreserve, result.Report.Mode)
	assert.Equal(t, types.ReconstructionStats{Paragraphs: 6, Substituted: 2, Unfilled: 1}, result.Report.Stats)
	assert.Equal(t, "fake-model", result.Report.Model)
	assert.Equal(t, int64(120), result.Report.TokenUsage.TotalTokens)
	assert.False(t, result.Report.CompletedAt.IsZero())

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "tailor_resume", req.Operation)
	assert.Contains(t, req.UserPrompt, "Looking for a Go engineer")
	assert.Contains(t, req.UserPrompt, "Jane Doe\nBackend engineer\nEXPERIENCE\nWrote services")
}

func TestTailorRebuild(t *testing.T) {
	gen := &fakeGenerator{outcome: ai.Succeeded(&ai.Generation{
		Text: "JANE DOE\nGo engineer\n\nEXPERIENCE\n- Built Go services",
	})}
	svc := newTestService(t, gen)

	result, err := svc.Tailor(context.Background(), Input{
		Resume:         renderSource(t),
		JobDescription: "Go engineer",
		Mode:           types.ModeRebuild,
	})
	require.NoError(t, err)

	want := []types.Paragraph{
		{Style: "Heading1", Text: "JANE DOE"},
		{Style: document.DefaultStyle, Text: "Go engineer"},
		{Style: "Heading1", Text: "EXPERIENCE"},
		{Style: "ListBullet", Text: "Built Go services"},
	}
	if diff := cmp.Diff(want, loadResult(t, result.Document)); diff != "" {
		t.Errorf("rebuilt document mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, types.ModeRebuild, result.Report.Mode)
	assert.Equal(t, 4, result.Report.Stats.Paragraphs)
}

func TestTailorGenerationFailure(t *testing.T) {
	tests := []struct {
		name     string
		reason   ai.FailureReason
		wantCode string
	}{
		{"rate limited", ai.ReasonRateLimited, errors.ErrCodeAIServiceFailed},
		{"timeout", ai.ReasonTimeout, errors.ErrCodeAITimeout},
		{"empty", ai.ReasonEmptyResponse, errors.ErrCodeAIServiceFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{outcome: ai.Failed(tt.reason, stderrors.New("upstream"))}
			svc := newTestService(t, gen)

			_, err := svc.Tailor(context.Background(), Input{Resume: renderSource(t), JobDescription: "job"})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			assert.Equal(t, tt.reason, ai.Classify(err))

			var genErr *ai.GenerationError
			assert.ErrorAs(t, err, &genErr)
		})
	}
}

func TestTailorValidation(t *testing.T) {
	gen := &fakeGenerator{outcome: ai.Succeeded(&ai.Generation{Text: "- x"})}
	svc := newTestService(t, gen)

	tests := []struct {
		name     string
		input    Input
		wantCode string
	}{
		{"unknown mode", Input{Resume: renderSource(t), JobDescription: "job", Mode: "merge"}, errors.ErrCodeInvalidRequest},
		{"blank job description", Input{Resume: renderSource(t), JobDescription: " \n "}, errors.ErrCodeInvalidRequest},
		{"not a docx", Input{Resume: []byte("plain text"), JobDescription: "job"}, errors.ErrCodeDocumentUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Tailor(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
		})
	}
	assert.Empty(t, gen.requests, "generator must not be called for invalid input")
}

func TestNewServiceDefaultsMode(t *testing.T) {
	svc := NewService(&fakeGenerator{}, nil, "fake", "", nil, errors.Discard())
	assert.Equal(t, types.ModePreserve, svc.DefaultMode())
}

func TestReconstruct(t *testing.T) {
	replacement := strings.Join([]string{
		"Summary",
		"- One",
		"plain line",
		"- Two",
		"- Three",
		"- Four",
	}, "\n")

	result, err := Reconstruct(renderSource(t), replacement)
	require.NoError(t, err)

	want := sourceParagraphs()
	want[3].Text = "One"
	want[4].Text = "Two"
	want[5].Text = "Three"
	if diff := cmp.Diff(want, loadResult(t, result.Document)); diff != "" {
		t.Errorf("reconstructed document mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, types.ReconstructionStats{Paragraphs: 6, Substituted: 3, Dropped: 1}, result.Report.Stats)
}

func TestReconstructEmptyReplacementIsIdentity(t *testing.T) {
	result, err := Reconstruct(renderSource(t), "")
	require.NoError(t, err)
	if diff := cmp.Diff(sourceParagraphs(), loadResult(t, result.Document)); diff != "" {
		t.Errorf("document changed (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, result.Report.Stats.Unfilled)
}
