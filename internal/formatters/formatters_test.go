package formatters

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"resumeforge/internal/types"
)

func TestFormatDispatch(t *testing.T) {
	registry := NewFormatterRegistry()

	tailor := types.TailorReport{
		Mode:       types.ModePreserve,
		OutputFile: "out.docx",
		Stats:      types.ReconstructionStats{Paragraphs: 6, Substituted: 2, Unfilled: 1},
		TokenUsage: &types.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}
	suggest := types.SuggestionReport{
		Score:       50,
		Keywords:    []string{"golang", "kubernetes"},
		Matched:     []string{"golang"},
		Missing:     []string{"kubernetes"},
		Suggestions: []string{"Add kubernetes"},
	}
	submission := types.SubmissionReport{
		TargetURL: "https://jobs.example.com/apply",
		Reason:    "submit_missing",
		Steps:     []string{"navigated", "uploaded resume"},
	}

	tests := []struct {
		name   string
		data   any
		format string
		want   []string
	}{
		{"tailor text", tailor, "text", []string{"Mode: preserve", "Bullets substituted: 2", "Slots left unchanged: 1", "Total: 15"}},
		{"tailor markdown", tailor, "markdown", []string{"# Tailored Resume", "| 6 | 2 | 0 | 1 |", "`out.docx`"}},
		{"suggest text", suggest, "text", []string{"Score: 50.0/100", "Matched:\n- golang", "Missing:\n- kubernetes", "1. Add kubernetes"}},
		{"suggest markdown", suggest, "markdown", []string{"**Score:** 50.0/100", "- `kubernetes`"}},
		{"submission text", submission, "text", []string{"Submitted: false", "Reason: submit_missing", "- uploaded resume"}},
		{"submission markdown", submission, "markdown", []string{"**Status:** not submitted", "2. uploaded resume"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.Format(tt.data, tt.format)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("Format() output missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestFormatJSONForAnyType(t *testing.T) {
	registry := NewFormatterRegistry()
	got, err := registry.Format(types.SuggestionReport{Score: 12.5, Keywords: []string{}}, "json")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var decoded types.SuggestionReport
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded.Score != 12.5 {
		t.Errorf("Score = %v, want 12.5", decoded.Score)
	}
}

func TestFormatUnknown(t *testing.T) {
	registry := NewFormatterRegistry()
	if _, err := registry.Format(types.TailorReport{}, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := registry.Format(map[string]int{"a": 1}, "text"); err == nil {
		t.Error("expected error for text format of an unregistered type")
	}
}

func TestEmptyListsRenderPlaceholder(t *testing.T) {
	got, err := NewFormatterRegistry().Format(types.SuggestionReport{}, "text")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(got, "Matched:\n(none)") {
		t.Errorf("expected placeholder for empty matched list:\n%s", got)
	}
}

func TestGetSupportedFormats(t *testing.T) {
	got := NewFormatterRegistry().GetSupportedFormats()
	slices.Sort(got)
	want := []string{"json", "markdown", "text"}
	if !slices.Equal(got, want) {
		t.Errorf("GetSupportedFormats() = %v, want %v", got, want)
	}
}
