package ai

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptLibraryDefaults(t *testing.T) {
	lib, err := NewPromptLibrary(config.PromptConfig{}, errors.Discard())
	require.NoError(t, err)

	req := lib.Build("Go engineer wanted", "Jane Doe\n- Built X")
	assert.Equal(t, "tailor_resume", req.Operation)
	assert.Equal(t, DefaultSystemPrompt, req.SystemPrompt)

	jobAt := strings.Index(req.UserPrompt, "Go engineer wanted")
	resumeAt := strings.Index(req.UserPrompt, "Jane Doe\n- Built X")
	require.NotEqual(t, -1, jobAt)
	require.NotEqual(t, -1, resumeAt)
	assert.Less(t, jobAt, resumeAt, "job description comes before the resume")
	assert.Contains(t, req.UserPrompt, "6. MAINTAIN AUTHENTICITY")
	assert.Contains(t, req.UserPrompt, `Start every bullet point line with "- "`)
}

func TestPromptLibraryPriority(t *testing.T) {
	dir := t.TempDir()
	systemFile := filepath.Join(dir, "system.txt")
	userFile := filepath.Join(dir, "user.txt")
	require.NoError(t, os.WriteFile(systemFile, []byte("  system from file \n"), 0600))
	require.NoError(t, os.WriteFile(userFile, []byte("JOB=%s RESUME=%s"), 0600))

	t.Run("inline config beats default", func(t *testing.T) {
		lib, err := NewPromptLibrary(config.PromptConfig{System: "inline system", User: "J:%s R:%s"}, errors.Discard())
		require.NoError(t, err)
		req := lib.Build("job", "cv")
		assert.Equal(t, "inline system", req.SystemPrompt)
		assert.Equal(t, "J:job R:cv", req.UserPrompt)
	})

	t.Run("file beats inline config", func(t *testing.T) {
		lib, err := NewPromptLibrary(config.PromptConfig{
			System:     "inline system",
			SystemFile: systemFile,
			User:       "J:%s R:%s",
			UserFile:   userFile,
		}, errors.Discard())
		require.NoError(t, err)
		req := lib.Build("job", "cv")
		assert.Equal(t, "system from file", req.SystemPrompt)
		assert.Equal(t, "JOB=job RESUME=cv", req.UserPrompt)
	})
}

func TestPromptLibraryReload(t *testing.T) {
	userFile := filepath.Join(t.TempDir(), "user.txt")
	require.NoError(t, os.WriteFile(userFile, []byte("v1 %s %s"), 0600))

	lib, err := NewPromptLibrary(config.PromptConfig{UserFile: userFile}, errors.Discard())
	require.NoError(t, err)
	assert.Equal(t, "v1 a b", lib.Build("a", "b").UserPrompt)

	require.NoError(t, os.WriteFile(userFile, []byte("v2 %s %s"), 0600))
	require.NoError(t, lib.Reload())
	assert.Equal(t, "v2 a b", lib.Build("a", "b").UserPrompt)

	// A broken template keeps the previous prompt
	require.NoError(t, os.WriteFile(userFile, []byte("no placeholders"), 0600))
	err = lib.Reload()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.CodeOf(err))
	assert.Equal(t, "v2 a b", lib.Build("a", "b").UserPrompt)

	require.NoError(t, os.Remove(userFile))
	err = lib.Reload()
	assert.Equal(t, errors.ErrCodeFileNotReadable, errors.CodeOf(err))
}

func TestPromptLibraryRejectsInlineTemplateWithoutPlaceholders(t *testing.T) {
	for _, user := range []string{"Tailor this resume", "Job: %s", "%s %s %s"} {
		t.Run(user, func(t *testing.T) {
			_, err := NewPromptLibrary(config.PromptConfig{User: user}, errors.Discard())
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidConfig, errors.CodeOf(err))
		})
	}
}
