package submit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidate(t *testing.T) {
	resume := writeFile(t, "resume.docx", "docx")

	tests := []struct {
		name    string
		app     Application
		wantErr bool
	}{
		{"valid", Application{ResumePath: resume, TargetURL: "https://jobs.example.com/apply/1"}, false},
		{"relative url", Application{ResumePath: resume, TargetURL: "/apply"}, true},
		{"ftp url", Application{ResumePath: resume, TargetURL: "ftp://example.com"}, true},
		{"no resume", Application{TargetURL: "https://example.com"}, true},
		{"missing resume", Application{ResumePath: resume + ".gone", TargetURL: "https://example.com"}, true},
		{"resume is a directory", Application{ResumePath: filepath.Dir(resume), TargetURL: "https://example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.app)
			if !tt.wantErr {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.False(t, got.Submitted)
			assert.Equal(t, ReasonInvalidApplication, got.Reason)
		})
	}
}

func TestBrowserSubmitterRejectsInvalidApplication(t *testing.T) {
	b := NewBrowserSubmitter(config.BrowserConfig{Headless: true}, errors.Discard())
	got := b.Submit(context.Background(), Application{TargetURL: "not a url"})
	assert.Equal(t, ReasonInvalidApplication, got.Reason)
	assert.Equal(t, defaultBrowserTimeout, b.cfg.Timeout)
}

func TestLoadProfile(t *testing.T) {
	path := writeFile(t, "profile.yaml", `
name: "  Jane Doe "
email: jane@example.com
phone: "+1 555 0100"
linkedin: https://linkedin.com/in/jane
fields:
  "#work-authorization": "Yes"
`)

	got, err := LoadProfile(path)
	require.NoError(t, err)

	want := &Profile{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Phone:    "+1 555 0100",
		LinkedIn: "https://linkedin.com/in/jane",
		Fields:   map[string]string{"#work-authorization": "Yes"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadProfile() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadProfileErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		wantCode string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") }, errors.ErrCodeFileNotFound},
		{"bad yaml", func(t *testing.T) string { return writeFile(t, "p.yaml", "name: [unclosed") }, errors.ErrCodeInvalidFormat},
		{"no email", func(t *testing.T) string { return writeFile(t, "p.yaml", "name: Jane") }, errors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProfile(tt.path(t))
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
		})
	}
}

func TestHasConfirmation(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Thank you for applying to Acme!", true},
		{"Your application\n  has been   submitted.", true},
		{"APPLICATION RECEIVED", true},
		{"Please fix the errors below", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, hasConfirmation(tt.text))
		})
	}
}

func TestProfileFields(t *testing.T) {
	fields := profileFields(Profile{
		Name:  "Jane",
		Email: "jane@example.com",
		Fields: map[string]string{
			"#salary":  "100k",
			"#empty":   "",
			"#country": "NZ",
		},
	})

	var labels []string
	for _, f := range fields {
		labels = append(labels, f.label)
	}
	assert.Equal(t, []string{"name", "email", "#country", "#salary"}, labels)
	assert.Equal(t, []string{"#country"}, fields[2].selectors)
}

func TestOutcomeReport(t *testing.T) {
	report := Outcome{Reason: ReasonSubmitMissing, Detail: "no button"}.Report("https://example.com")
	assert.Equal(t, "https://example.com", report.TargetURL)
	assert.Equal(t, "submit_missing", report.Reason)
	assert.NotNil(t, report.Steps)
	assert.False(t, report.Submitted)
}

func TestSelectorListsAreNonEmpty(t *testing.T) {
	for name, list := range map[string][]string{
		"resume": resumeInputSelectors,
		"submit": submitSelectors,
		"name":   nameSelectors,
		"email":  emailSelectors,
	} {
		assert.NotEmpty(t, list, name)
	}
}
