// Package submit fills and submits online job application forms.
//
// A Submitter receives the path of a finished resume, the URL of the
// application page and an applicant profile, and reports whether the form
// was submitted. Failures are returned as an Outcome reason, never as a
// panic.
package submit

import (
	"context"
	"net/url"
	"os"
	"sort"
	"strings"

	"resumeforge/internal/errors"
	"resumeforge/internal/types"

	"gopkg.in/yaml.v3"
)

// Reason explains why a submission did not complete
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonInvalidApplication Reason = "invalid_application"
	ReasonNavigationFailed   Reason = "navigation_failed"
	ReasonResumeFieldMissing Reason = "resume_field_missing"
	ReasonSubmitMissing      Reason = "submit_missing"
	ReasonNoConfirmation     Reason = "no_confirmation"
	ReasonTimeout            Reason = "timeout"
	ReasonBrowserError       Reason = "browser_error"
)

// Profile holds the applicant details typed into the form
type Profile struct {
	Name     string `yaml:"name" json:"name"`
	Email    string `yaml:"email" json:"email"`
	Phone    string `yaml:"phone" json:"phone,omitempty"`
	LinkedIn string `yaml:"linkedin" json:"linkedin,omitempty"`
	// Fields maps a CSS selector to the value typed into it
	Fields map[string]string `yaml:"fields" json:"fields,omitempty"`
}

// Application is one submission request
type Application struct {
	ResumePath string
	TargetURL  string
	Profile    Profile
}

// Outcome is the result of a submission attempt. Steps lists what was done,
// in order, for diagnostics.
type Outcome struct {
	Submitted bool
	Reason    Reason
	Detail    string
	Steps     []string
}

// Report converts o into the CLI report for target
func (o Outcome) Report(target string) types.SubmissionReport {
	steps := o.Steps
	if steps == nil {
		steps = []string{}
	}
	return types.SubmissionReport{
		TargetURL: target,
		Submitted: o.Submitted,
		Reason:    string(o.Reason),
		Detail:    o.Detail,
		Steps:     steps,
	}
}

// Submitter submits an application
type Submitter interface {
	Submit(ctx context.Context, app Application) Outcome
}

func failed(reason Reason, detail string, steps []string) Outcome {
	return Outcome{Reason: reason, Detail: detail, Steps: steps}
}

// Validate checks app before a browser is started. It returns a failed
// Outcome with ReasonInvalidApplication, or nil when app is usable.
func Validate(app Application) *Outcome {
	u, err := url.Parse(app.TargetURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		o := failed(ReasonInvalidApplication, "target URL must be an absolute http(s) URL", nil)
		return &o
	}
	if app.ResumePath == "" {
		o := failed(ReasonInvalidApplication, "resume path is empty", nil)
		return &o
	}
	info, err := os.Stat(app.ResumePath)
	if err != nil || info.IsDir() {
		o := failed(ReasonInvalidApplication, "resume file not found: "+app.ResumePath, nil)
		return &o
	}
	return nil
}

// LoadProfile reads an applicant profile from a YAML file
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound, "Profile file not found", err).
				WithContext("path", path)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to read profile file", err).
			WithContext("path", path)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat, "Profile is not valid YAML", err).
			WithContext("path", path)
	}

	profile.Name = strings.TrimSpace(profile.Name)
	profile.Email = strings.TrimSpace(profile.Email)
	if profile.Name == "" || profile.Email == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Profile needs at least a name and an email", nil).
			WithContext("path", path)
	}
	return &profile, nil
}

// Selector candidates, tried in order until one matches.
var (
	resumeInputSelectors = []string{
		`input[type="file"][name*="resume" i]`,
		`input[type="file"][id*="resume" i]`,
		`input[type="file"][name*="cv" i]`,
		`input[type="file"]`,
	}

	submitSelectors = []string{
		`button[type="submit"]`,
		`input[type="submit"]`,
		`button[id*="submit" i]`,
		`button[class*="submit" i]`,
		`button[aria-label*="submit" i]`,
	}

	nameSelectors = []string{
		`input[name="name"]`,
		`input[name*="full_name" i]`,
		`input[autocomplete="name"]`,
		`input[id*="name" i]:not([id*="first" i]):not([id*="last" i])`,
	}
	emailSelectors = []string{
		`input[type="email"]`,
		`input[name*="email" i]`,
		`input[autocomplete="email"]`,
	}
	phoneSelectors = []string{
		`input[type="tel"]`,
		`input[name*="phone" i]`,
		`input[autocomplete="tel"]`,
	}
	linkedInSelectors = []string{
		`input[name*="linkedin" i]`,
		`input[id*="linkedin" i]`,
		`input[placeholder*="linkedin" i]`,
	}
)

var confirmationPhrases = []string{
	"thank you for applying",
	"thanks for applying",
	"application submitted",
	"application has been submitted",
	"application received",
	"we have received your application",
	"successfully submitted",
}

// hasConfirmation reports whether page text contains a confirmation phrase
func hasConfirmation(pageText string) bool {
	text := strings.ToLower(strings.Join(strings.Fields(pageText), " "))
	for _, phrase := range confirmationPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// formField is one text input to fill
type formField struct {
	label     string
	selectors []string
	value     string
}

// profileFields lists the inputs to fill for p. Known fields come first in
// a fixed order, then free-form fields sorted by selector. Empty values are
// skipped.
func profileFields(p Profile) []formField {
	known := []formField{
		{label: "name", selectors: nameSelectors, value: p.Name},
		{label: "email", selectors: emailSelectors, value: p.Email},
		{label: "phone", selectors: phoneSelectors, value: p.Phone},
		{label: "linkedin", selectors: linkedInSelectors, value: p.LinkedIn},
	}

	var fields []formField
	for _, f := range known {
		if f.value != "" {
			fields = append(fields, f)
		}
	}

	selectors := make([]string, 0, len(p.Fields))
	for sel := range p.Fields {
		selectors = append(selectors, sel)
	}
	sort.Strings(selectors)
	for _, sel := range selectors {
		if p.Fields[sel] == "" {
			continue
		}
		fields = append(fields, formField{label: sel, selectors: []string{sel}, value: p.Fields[sel]})
	}
	return fields
}
