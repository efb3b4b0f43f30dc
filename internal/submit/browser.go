package submit

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

const (
	defaultBrowserTimeout = 2 * time.Minute
	confirmationWait      = 15 * time.Second
	confirmationPoll      = 500 * time.Millisecond
)

// BrowserSubmitter drives a headless Chrome through an application form
type BrowserSubmitter struct {
	cfg    config.BrowserConfig
	logger *errors.Logger
}

// NewBrowserSubmitter creates a submitter using cfg
func NewBrowserSubmitter(cfg config.BrowserConfig, logger *errors.Logger) *BrowserSubmitter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultBrowserTimeout
	}
	return &BrowserSubmitter{cfg: cfg, logger: logger}
}

func (b *BrowserSubmitter) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if b.cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if b.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(b.cfg.ChromePath))
	}
	if b.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.cfg.UserAgent))
	}
	return opts
}

// Submit opens app.TargetURL, attaches the resume, fills the profile fields,
// clicks submit and waits for a confirmation message.
func (b *BrowserSubmitter) Submit(ctx context.Context, app Application) Outcome {
	if invalid := Validate(app); invalid != nil {
		return *invalid
	}
	resumePath, err := filepath.Abs(app.ResumePath)
	if err != nil {
		return failed(ReasonInvalidApplication, err.Error(), nil)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, b.cfg.Timeout)
	defer cancel()

	logger := b.logger.With("target_url", app.TargetURL)
	var steps []string
	step := func(format string, args ...any) {
		s := fmt.Sprintf(format, args...)
		steps = append(steps, s)
		logger.Debug("Submission step", "step", s)
	}

	if err := chromedp.Run(runCtx,
		chromedp.Navigate(app.TargetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return b.failure(runCtx, ReasonNavigationFailed, err, steps)
	}
	step("opened %s", app.TargetURL)

	sel, err := firstPresent(runCtx, resumeInputSelectors)
	if err != nil {
		return b.failure(runCtx, ReasonBrowserError, err, steps)
	}
	if sel == "" {
		return failed(ReasonResumeFieldMissing, "no file input found on the page", steps)
	}
	if err := chromedp.Run(runCtx, chromedp.SetUploadFiles(sel, []string{resumePath}, chromedp.ByQuery)); err != nil {
		return b.failure(runCtx, ReasonBrowserError, err, steps)
	}
	step("attached resume via %s", sel)

	for _, field := range profileFields(app.Profile) {
		sel, err := firstPresent(runCtx, field.selectors)
		if err != nil {
			return b.failure(runCtx, ReasonBrowserError, err, steps)
		}
		if sel == "" {
			step("skipped %s: no matching input", field.label)
			continue
		}
		if err := chromedp.Run(runCtx, chromedp.SendKeys(sel, field.value, chromedp.ByQuery)); err != nil {
			return b.failure(runCtx, ReasonBrowserError, err, steps)
		}
		step("filled %s", field.label)
	}

	sel, err = firstPresent(runCtx, submitSelectors)
	if err != nil {
		return b.failure(runCtx, ReasonBrowserError, err, steps)
	}
	if sel == "" {
		return failed(ReasonSubmitMissing, "no submit button found on the page", steps)
	}
	if err := chromedp.Run(runCtx, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		return b.failure(runCtx, ReasonBrowserError, err, steps)
	}
	step("clicked %s", sel)

	confirmed, err := waitForConfirmation(runCtx, confirmationWait)
	if err != nil {
		return b.failure(runCtx, ReasonBrowserError, err, steps)
	}
	if !confirmed {
		return failed(ReasonNoConfirmation, "form was submitted but no confirmation message appeared", steps)
	}
	step("confirmation detected")

	logger.Info("Application submitted", "steps", len(steps))
	return Outcome{Submitted: true, Steps: steps}
}

// failure maps a browser error to an Outcome. A deadline on ctx wins over
// the reason the caller suggested.
func (b *BrowserSubmitter) failure(ctx context.Context, reason Reason, err error, steps []string) Outcome {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = ReasonTimeout
	}
	b.logger.LogError(errors.NewNetworkError(errors.ErrCodeSubmissionFailed, "Submission failed", err),
		"Browser submission failed", "reason", string(reason))
	return failed(reason, err.Error(), steps)
}

// firstPresent returns the first selector that matches at least one node,
// or "" when none does. Lookups do not wait for nodes to appear.
func firstPresent(ctx context.Context, selectors []string) (string, error) {
	for _, sel := range selectors {
		var nodes []*cdp.Node
		if err := chromedp.Run(ctx, chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
			return "", err
		}
		if len(nodes) > 0 {
			return sel, nil
		}
	}
	return "", nil
}

// waitForConfirmation polls the page text until a confirmation phrase
// appears or wait elapses.
func waitForConfirmation(ctx context.Context, wait time.Duration) (bool, error) {
	deadline := time.Now().Add(wait)
	for {
		var text string
		if err := chromedp.Run(ctx, chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text)); err != nil {
			return false, err
		}
		if hasConfirmation(text) {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(confirmationPoll):
		}
	}
}
