package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"
)

func TestAppErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewValidationError(ErrCodeInvalidRequest, "resume is required", nil),
			expected: "INVALID_REQUEST: resume is required",
		},
		{
			name:     "with cause",
			err:      NewIOError(ErrCodeFileNotFound, "missing file", fmt.Errorf("stat failed")),
			expected: "FILE_NOT_FOUND: missing file (caused by: stat failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestAppErrorUnwrapAndCode(t *testing.T) {
	cause := stderrors.New("zip: not a valid zip file")
	appErr := NewDocumentError(ErrCodeDocumentUnreadable, "cannot parse resume", cause)
	wrapped := fmt.Errorf("tailor: %w", appErr)

	if !stderrors.Is(wrapped, cause) {
		t.Error("Expected wrapped error to match its root cause")
	}
	if code := CodeOf(wrapped); code != ErrCodeDocumentUnreadable {
		t.Errorf("Expected code %s, got %s", ErrCodeDocumentUnreadable, code)
	}
	if code := CodeOf(cause); code != "" {
		t.Errorf("Expected empty code for plain error, got %s", code)
	}
	if appErr.Type != ErrorTypeDocument {
		t.Errorf("Expected type %s, got %s", ErrorTypeDocument, appErr.Type)
	}
}

func TestLoggerLogErrorIncludesContext(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "debug", "json")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	appErr := NewAIError(ErrCodeAIServiceFailed, "generation failed", nil).
		WithContext("reason", "rate_limited")
	logger.LogError(appErr, "Tailoring failed", "session_id", "abc")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Expected one JSON record, got %q: %v", buf.String(), err)
	}

	checks := map[string]string{
		"msg":        "Tailoring failed",
		"error_code": ErrCodeAIServiceFailed,
		"error_type": string(ErrorTypeAI),
		"reason":     "rate_limited",
		"session_id": "abc",
	}
	for key, want := range checks {
		if got, _ := record[key].(string); got != want {
			t.Errorf("Expected %s=%q, got %q", key, want, got)
		}
	}
}

func TestNewRejectsUnknownLevelAndFormat(t *testing.T) {
	if _, err := New("verbose"); err == nil {
		t.Error("Expected error for unknown level")
	}
	if _, err := NewWithFormat("info", "xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
	if _, err := NewWithFormat("warn", "text"); err != nil {
		t.Errorf("Expected text format to be accepted, got %v", err)
	}
}
