package common

import (
	"fmt"
	"slices"
	"strings"

	"resumeforge/internal/errors"
	"resumeforge/internal/types"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("Unsupported output format '%s'. Supported formats: %s", format, strings.Join(supportedFormats, ", ")), nil)
}

// ValidateTailorMode parses a --mode flag. Empty selects fallback.
func ValidateTailorMode(mode string, fallback types.TailorMode) (types.TailorMode, error) {
	if mode == "" {
		return fallback, nil
	}
	m := types.TailorMode(strings.ToLower(mode))
	if !m.Valid() {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Unsupported mode '%s'. Use '%s' or '%s'", mode, types.ModePreserve, types.ModeRebuild), nil)
	}
	return m, nil
}

// CompleteFormats returns the formats offered by shell completion, sorted
func CompleteFormats(supportedFormats []string) []string {
	formats := slices.Clone(supportedFormats)
	slices.Sort(formats)
	return formats
}
