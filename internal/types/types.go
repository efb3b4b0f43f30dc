package types

import "time"

// Paragraph is one styled paragraph of a document, in document order.
// It is used both for paragraphs read from a source document and for the
// regenerated paragraphs handed to a document writer.
type Paragraph struct {
	Style string `json:"style"`
	Text  string `json:"text"`
}

// TailorMode selects how generated text is turned back into a document
type TailorMode string

const (
	// ModePreserve keeps the source layout and swaps bullet text only
	ModePreserve TailorMode = "preserve"
	// ModeRebuild renders the generated text into a fresh document
	ModeRebuild TailorMode = "rebuild"
)

// Valid reports whether m is a known mode
func (m TailorMode) Valid() bool {
	return m == ModePreserve || m == ModeRebuild
}

// ReconstructionStats summarizes one bullet substitution pass
type ReconstructionStats struct {
	Paragraphs  int `json:"paragraphs"`
	Substituted int `json:"substituted"`
	Unfilled    int `json:"unfilled"`
	Dropped     int `json:"dropped"`
}

// TokenUsage reports model token consumption for a single call
type TokenUsage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

// TailorReport describes a completed tailoring run
type TailorReport struct {
	Mode          TailorMode          `json:"mode"`
	OutputFile    string              `json:"outputFile,omitempty"`
	SessionID     string              `json:"sessionId,omitempty"`
	Stats         ReconstructionStats `json:"stats"`
	Model         string              `json:"model,omitempty"`
	TokenUsage    *TokenUsage         `json:"tokenUsage,omitempty"`
	GeneratedText string              `json:"generatedText,omitempty"`
	CompletedAt   time.Time           `json:"completedAt"`
}

// SuggestionReport is the keyword comparison between a resume and a job description
type SuggestionReport struct {
	Score       float64  `json:"score"`
	Keywords    []string `json:"keywords"`
	Matched     []string `json:"matched"`
	Missing     []string `json:"missing"`
	Suggestions []string `json:"suggestions"`
}

// SubmissionReport is the CLI view of a browser submission attempt
type SubmissionReport struct {
	TargetURL string   `json:"targetUrl"`
	Submitted bool     `json:"submitted"`
	Reason    string   `json:"reason,omitempty"`
	Detail    string   `json:"detail,omitempty"`
	Steps     []string `json:"steps"`
}
