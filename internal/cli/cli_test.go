package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"resumeforge/internal/common"
	"resumeforge/internal/document"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `app:
  logLevel: error
  logFormat: text
`

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// execute runs the root command with args against a quiet config file
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath := writeFile(t, t.TempDir(), "config.yaml", []byte(testConfig))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		tailorOpts = documentOptions{}
		reconstructOpts = documentOptions{}
		suggestOpts.output = common.CommandConfig{}
	})

	err := Execute(context.Background())
	return out.String(), err
}

func resumeDocx(t *testing.T) []byte {
	t.Helper()
	data, err := document.Render([]types.Paragraph{
		{Style: "Heading1", Text: "Jane Doe"},
		{Style: document.DefaultStyle, Text: "Backend engineer"},
		{Style: "Heading1", Text: "EXPERIENCE"},
		{Style: "ListBullet", Text: "Wrote services"},
		{Style: "ListBullet", Text: "Fixed bugs"},
		{Style: "ListBullet", Text: "Reviewed code"},
	})
	require.NoError(t, err)
	return data
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestReconstructCommand(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.docx", resumeDocx(t))
	replacement := writeFile(t, dir, "bullets.txt", []byte("- Built Go services\n- Cut latency by half\n"))
	outDoc := filepath.Join(dir, "out", "tailored.docx")
	report := filepath.Join(dir, "report.json")

	_, err := execute(t, "reconstruct", resume, replacement, "-o", outDoc, "--report", report, "--report-format", "json")
	require.NoError(t, err)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var got types.TailorReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, types.ReconstructionStats{Paragraphs: 6, Substituted: 2, Unfilled: 1}, got.Stats)
	assert.Equal(t, outDoc, got.OutputFile)

	doc, err := os.Open(outDoc)
	require.NoError(t, err)
	defer func() { _ = doc.Close() }()
	paragraphs, err := document.LoadParagraphs(doc)
	require.NoError(t, err)
	require.Len(t, paragraphs, 6)
	assert.Equal(t, "Built Go services", paragraphs[3].Text)
	assert.Equal(t, "Cut latency by half", paragraphs[4].Text)
	assert.Equal(t, "Reviewed code", paragraphs[5].Text)
}

func TestReconstructCommandMarkdownReplacement(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.docx", resumeDocx(t))
	replacement := writeFile(t, dir, "tailored.md", []byte("# Summary\n\nGo engineer\n\n- Built Go services\n- Cut latency by half\n"))
	outDoc := filepath.Join(dir, "tailored.docx")
	report := filepath.Join(dir, "report.json")

	_, err := execute(t, "reconstruct", resume, replacement, "-o", outDoc, "--report", report, "--report-format", "json")
	require.NoError(t, err)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var got types.TailorReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, types.ReconstructionStats{Paragraphs: 6, Substituted: 2, Unfilled: 1}, got.Stats)
}

func TestReconstructCommandRejectsNonDocxResume(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", []byte("Jane Doe"))
	replacement := writeFile(t, dir, "bullets.txt", []byte("- one\n"))

	_, err := execute(t, "reconstruct", resume, replacement, "-o", filepath.Join(dir, "out.docx"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidFormat, errors.CodeOf(err))
	assert.NoFileExists(t, filepath.Join(dir, "out.docx"))
}

func TestSuggestCommand(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", []byte("Experienced golang engineer who writes sql daily"))
	job := writeFile(t, dir, "job.md", []byte("# Role\n\ngolang golang kubernetes kubernetes sql"))
	out := filepath.Join(dir, "suggestions.json")

	_, err := execute(t, "suggest", resume, job, "--format", "json", "-o", out, "--top", "10", "--min-length", "3")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var got types.SuggestionReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Contains(t, got.Matched, "golang")
	assert.Contains(t, got.Matched, "sql")
	assert.Contains(t, got.Missing, "kubernetes")
	assert.NotContains(t, got.Missing, "golang")
}

func TestCommandValidation(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.docx", resumeDocx(t))
	job := writeFile(t, dir, "job.txt", []byte("golang"))

	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{
			name:     "unsupported report format",
			args:     []string{"reconstruct", resume, job, "--report-format", "yaml", "-o", filepath.Join(dir, "a.docx")},
			wantCode: errors.ErrCodeInvalidFormat,
		},
		{
			name:     "unknown tailoring mode",
			args:     []string{"tailor", resume, job, "--mode", "freestyle", "-o", filepath.Join(dir, "b.docx")},
			wantCode: errors.ErrCodeInvalidRequest,
		},
		{
			name:     "missing input file",
			args:     []string{"suggest", filepath.Join(dir, "missing.txt"), job, "--format", "json"},
			wantCode: errors.ErrCodeFileNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
		})
	}
}

func TestCommandArgs(t *testing.T) {
	_, err := execute(t, "suggest", "only-one.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestApplyRequiresProfile(t *testing.T) {
	_, err := execute(t, "apply", "resume.pdf", "https://jobs.example.com/apply")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile")
}

func TestFlagBindings(t *testing.T) {
	keys := map[string]string{}
	for _, b := range flagBindings(serveCmd) {
		keys[b.Key] = b.Flag.Name
	}
	assert.Equal(t, "port", keys["server.port"])
	assert.Equal(t, "storage-dir", keys["storage.dir"])
	assert.Len(t, keys, 7)
}
