package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumeforge/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry is the registry used by the CLI
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "TailorReport", &TailorTextFormatter{})
	registry.RegisterFormatter("markdown", "TailorReport", &TailorMarkdownFormatter{})
	registry.RegisterFormatter("text", "SuggestionReport", &SuggestionTextFormatter{})
	registry.RegisterFormatter("markdown", "SuggestionReport", &SuggestionMarkdownFormatter{})
	registry.RegisterFormatter("text", "SubmissionReport", &SubmissionTextFormatter{})
	registry.RegisterFormatter("markdown", "SubmissionReport", &SubmissionMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.TailorReport:
		return "TailorReport"
	case types.SuggestionReport:
		return "SuggestionReport"
	case types.SubmissionReport:
		return "SubmissionReport"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// TailorTextFormatter handles text formatting for tailor reports
type TailorTextFormatter struct{}

func (ttf *TailorTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.TailorReport)
	if !ok {
		return "", fmt.Errorf("expected TailorReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== TAILORED RESUME ===\n")
	fmt.Fprintf(&output, "Mode: %s\n", report.Mode)
	if report.OutputFile != "" {
		fmt.Fprintf(&output, "Output: %s\n", report.OutputFile)
	}
	if report.Model != "" {
		fmt.Fprintf(&output, "Model: %s\n", report.Model)
	}
	output.WriteString("\n")

	output.WriteString("=== RECONSTRUCTION ===\n")
	fmt.Fprintf(&output, "Paragraphs: %d\n", report.Stats.Paragraphs)
	fmt.Fprintf(&output, "Bullets substituted: %d\n", report.Stats.Substituted)
	fmt.Fprintf(&output, "Bullets dropped: %d\n", report.Stats.Dropped)
	fmt.Fprintf(&output, "Slots left unchanged: %d\n", report.Stats.Unfilled)

	if report.TokenUsage != nil {
		output.WriteString("\n=== TOKEN USAGE ===\n")
		fmt.Fprintf(&output, "Input: %d\nOutput: %d\nTotal: %d\n",
			report.TokenUsage.InputTokens, report.TokenUsage.OutputTokens, report.TokenUsage.TotalTokens)
	}

	return output.String(), nil
}

func (ttf *TailorTextFormatter) SupportedType() string {
	return "TailorReport"
}

// TailorMarkdownFormatter handles markdown formatting for tailor reports
type TailorMarkdownFormatter struct{}

func (tmf *TailorMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.TailorReport)
	if !ok {
		return "", fmt.Errorf("expected TailorReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Tailored Resume\n\n")
	fmt.Fprintf(&output, "- **Mode:** %s\n", report.Mode)
	if report.OutputFile != "" {
		fmt.Fprintf(&output, "- **Output:** `%s`\n", report.OutputFile)
	}
	if report.Model != "" {
		fmt.Fprintf(&output, "- **Model:** %s\n", report.Model)
	}
	output.WriteString("\n## Reconstruction\n\n")
	output.WriteString("| Paragraphs | Substituted | Dropped | Unchanged slots |\n")
	output.WriteString("|---|---|---|---|\n")
	fmt.Fprintf(&output, "| %d | %d | %d | %d |\n",
		report.Stats.Paragraphs, report.Stats.Substituted, report.Stats.Dropped, report.Stats.Unfilled)

	if report.TokenUsage != nil {
		output.WriteString("\n## Token Usage\n\n")
		fmt.Fprintf(&output, "%d input, %d output, %d total\n",
			report.TokenUsage.InputTokens, report.TokenUsage.OutputTokens, report.TokenUsage.TotalTokens)
	}

	return output.String(), nil
}

func (tmf *TailorMarkdownFormatter) SupportedType() string {
	return "TailorReport"
}

// SuggestionTextFormatter handles text formatting for keyword reports
type SuggestionTextFormatter struct{}

func (stf *SuggestionTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.SuggestionReport)
	if !ok {
		return "", fmt.Errorf("expected SuggestionReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== KEYWORD MATCH ===\n")
	fmt.Fprintf(&output, "Score: %.1f/100\n\n", report.Score)

	output.WriteString("Matched:\n")
	writeList(&output, report.Matched, "- ")
	output.WriteString("\nMissing:\n")
	writeList(&output, report.Missing, "- ")

	if len(report.Suggestions) > 0 {
		output.WriteString("\n=== SUGGESTIONS ===\n")
		for i, s := range report.Suggestions {
			fmt.Fprintf(&output, "%d. %s\n", i+1, s)
		}
	}

	return output.String(), nil
}

func (stf *SuggestionTextFormatter) SupportedType() string {
	return "SuggestionReport"
}

// SuggestionMarkdownFormatter handles markdown formatting for keyword reports
type SuggestionMarkdownFormatter struct{}

func (smf *SuggestionMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.SuggestionReport)
	if !ok {
		return "", fmt.Errorf("expected SuggestionReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Keyword Match\n\n")
	fmt.Fprintf(&output, "**Score:** %.1f/100\n\n", report.Score)

	output.WriteString("## Matched\n\n")
	writeList(&output, wrapCode(report.Matched), "- ")
	output.WriteString("\n## Missing\n\n")
	writeList(&output, wrapCode(report.Missing), "- ")

	if len(report.Suggestions) > 0 {
		output.WriteString("\n## Suggestions\n\n")
		for i, s := range report.Suggestions {
			fmt.Fprintf(&output, "%d. %s\n", i+1, s)
		}
	}

	return output.String(), nil
}

func (smf *SuggestionMarkdownFormatter) SupportedType() string {
	return "SuggestionReport"
}

// SubmissionTextFormatter handles text formatting for submission reports
type SubmissionTextFormatter struct{}

func (stf *SubmissionTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.SubmissionReport)
	if !ok {
		return "", fmt.Errorf("expected SubmissionReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== APPLICATION ===\n")
	fmt.Fprintf(&output, "Target: %s\n", report.TargetURL)
	fmt.Fprintf(&output, "Submitted: %t\n", report.Submitted)
	if report.Reason != "" {
		fmt.Fprintf(&output, "Reason: %s\n", report.Reason)
	}
	if report.Detail != "" {
		fmt.Fprintf(&output, "Detail: %s\n", report.Detail)
	}

	output.WriteString("\nSteps:\n")
	writeList(&output, report.Steps, "- ")

	return output.String(), nil
}

func (stf *SubmissionTextFormatter) SupportedType() string {
	return "SubmissionReport"
}

// SubmissionMarkdownFormatter handles markdown formatting for submission reports
type SubmissionMarkdownFormatter struct{}

func (smf *SubmissionMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.SubmissionReport)
	if !ok {
		return "", fmt.Errorf("expected SubmissionReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Application\n\n")
	fmt.Fprintf(&output, "- **Target:** %s\n", report.TargetURL)
	status := "not submitted"
	if report.Submitted {
		status = "submitted"
	}
	fmt.Fprintf(&output, "- **Status:** %s\n", status)
	if report.Reason != "" {
		fmt.Fprintf(&output, "- **Reason:** `%s`\n", report.Reason)
	}
	if report.Detail != "" {
		fmt.Fprintf(&output, "- **Detail:** %s\n", report.Detail)
	}

	output.WriteString("\n## Steps\n\n")
	for i, step := range report.Steps {
		fmt.Fprintf(&output, "%d. %s\n", i+1, step)
	}

	return output.String(), nil
}

func (smf *SubmissionMarkdownFormatter) SupportedType() string {
	return "SubmissionReport"
}

func writeList(b *strings.Builder, items []string, prefix string) {
	if len(items) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, item := range items {
		b.WriteString(prefix)
		b.WriteString(item)
		b.WriteString("\n")
	}
}

func wrapCode(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = "`" + item + "`"
	}
	return out
}
