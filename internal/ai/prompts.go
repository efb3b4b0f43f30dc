package ai

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
)

// DefaultSystemPrompt provides the default system instruction
const DefaultSystemPrompt = `You are an expert resume writer and ATS optimization specialist.`

// DefaultUserPrompt is the tailoring prompt template. The first %s is the
// job description, the second the original resume.
const DefaultUserPrompt = `You are an expert resume writer and ATS optimization specialist. Please rewrite the following resume to be perfectly tailored for the job description provided. Follow these guidelines:

1. KEYWORD OPTIMIZATION:
   - Identify key skills, technologies, and requirements from the job description
   - Naturally incorporate these keywords throughout the resume
   - Ensure keyword density is appropriate for ATS systems

2. SUMMARY/OBJECTIVE REWRITE:
   - Rewrite the professional summary to directly address the job requirements
   - Highlight the most relevant experience and skills
   - Use compelling language that matches the job posting tone

3. EXPERIENCE ENHANCEMENT:
   - Reorder and rewrite bullet points to emphasize relevant experience
   - Use strong action verbs and quantify achievements where possible
   - Focus on accomplishments that align with job requirements

4. SKILLS OPTIMIZATION:
   - Prioritize technical and soft skills mentioned in the job description
   - Remove irrelevant skills that don't match the position
   - Add any missing relevant skills the candidate likely has

5. ATS FORMATTING:
   - Use standard section headers (Experience, Education, Skills, etc.)
   - Avoid complex formatting, tables, or graphics
   - Use consistent bullet points and formatting

6. MAINTAIN AUTHENTICITY:
   - Keep all information truthful and accurate
   - Don't add experience or skills the candidate doesn't have
   - Preserve the candidate's voice and career progression

JOB DESCRIPTION:
%s

ORIGINAL RESUME:
%s

Please provide the tailored resume in a clean, professional format that will perform well in ATS systems. Start every bullet point line with "- ". Return only the optimized resume content without any additional commentary.`

// PromptLibrary resolves the system and user prompts. A prompt loaded from
// a file wins over one set inline in configuration, which wins over the
// built-in default. It is safe for concurrent use.
type PromptLibrary struct {
	mu         sync.RWMutex
	cfg        config.PromptConfig
	fileSystem string
	fileUser   string
	logger     *errors.Logger
}

// NewPromptLibrary creates a library and loads any prompt files
func NewPromptLibrary(cfg config.PromptConfig, logger *errors.Logger) (*PromptLibrary, error) {
	if cfg.User != "" && !config.ValidUserTemplate(cfg.User) {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"Inline user prompt must contain two %s placeholders (job description, resume)", nil)
	}
	lib := &PromptLibrary{cfg: cfg, logger: logger}
	if err := lib.Reload(); err != nil {
		return nil, err
	}
	return lib, nil
}

// Reload re-reads the prompt files. On error the previously loaded
// prompts stay in effect.
func (l *PromptLibrary) Reload() error {
	system, err := readPromptFile(l.cfg.SystemFile)
	if err != nil {
		return err
	}
	user, err := readPromptFile(l.cfg.UserFile)
	if err != nil {
		return err
	}
	if user != "" && !config.ValidUserTemplate(user) {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"User prompt file must contain two %s placeholders (job description, resume)", nil).
			WithContext("file", l.cfg.UserFile)
	}

	l.mu.Lock()
	l.fileSystem = system
	l.fileUser = user
	l.mu.Unlock()

	if l.cfg.SystemFile != "" || l.cfg.UserFile != "" {
		l.logger.Info("Prompts loaded",
			"system_file", l.cfg.SystemFile,
			"user_file", l.cfg.UserFile)
	}
	return nil
}

func readPromptFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to read prompt file", err).
			WithContext("file", path)
	}
	return strings.TrimSpace(string(data)), nil
}

// SystemPrompt returns the effective system prompt
func (l *PromptLibrary) SystemPrompt() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return resolvePrompt(l.fileSystem, l.cfg.System, DefaultSystemPrompt)
}

// Build returns the tailoring request for a job description and resume
func (l *PromptLibrary) Build(jobDescription, resume string) Request {
	l.mu.RLock()
	template := resolvePrompt(l.fileUser, l.cfg.User, DefaultUserPrompt)
	l.mu.RUnlock()

	return Request{
		Operation:    "tailor_resume",
		SystemPrompt: l.SystemPrompt(),
		UserPrompt:   fmt.Sprintf(template, jobDescription, resume),
	}
}

// resolvePrompt selects the first non-empty prompt
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
