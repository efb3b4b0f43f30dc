package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"resumeforge/internal/errors"
)

// ValidateInputFile checks if a file exists and is readable
func ValidateInputFile(filename string) error {
	if filename == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Filename cannot be empty", nil)
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File does not exist: %s", filename), err)
		}
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot access file: %s", filename), err)
	}

	if info.IsDir() {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Path is a directory, not a file: %s", filename), nil)
	}

	file, err := os.Open(filename)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	if err := file.Close(); err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to close file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile checks if the output file path is valid, creating its
// directory when missing
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return errors.NewIOError(errors.ErrCodeFileNotReadable,
					fmt.Sprintf("Cannot create directory: %s", dir), err)
			}
		}
	}

	return nil
}

// RequireExtension fails unless filename has one of exts
func RequireExtension(filename string, exts ...string) error {
	if slices.Contains(exts, GetFileExtension(filename)) {
		return nil
	}
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("Unsupported file type %q, expected one of %s", GetFileExtension(filename), strings.Join(exts, ", ")), nil).
		WithContext("filename", filename)
}

// GetFileExtension returns the file extension in lowercase
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	return strings.ToLower(ext)
}

// IsTextFile checks if the file has a text-based extension
func IsTextFile(filename string) bool {
	ext := GetFileExtension(filename)
	textExtensions := []string{".txt", ".md", ".markdown", ".text", ".html", ".htm"}

	return slices.Contains(textExtensions, ext)
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
