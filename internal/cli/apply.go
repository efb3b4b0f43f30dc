package cli

import (
	"path/filepath"

	"resumeforge/internal/common"
	"resumeforge/internal/errors"
	"resumeforge/internal/submit"

	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply [resume-file] [application-url]",
	Short: "Submit a resume to an online application form",
	Long: `Apply opens the application page in a headless Chrome, attaches the resume,
fills in the applicant profile and submits the form. The command succeeds
only when the page shows a confirmation message.

The profile is a YAML file:

  name: Jane Doe
  email: jane@example.com
  phone: "+1 555 0100"
  linkedin: https://www.linkedin.com/in/janedoe
  fields:
    "#cover-letter": "I would love to join the team."`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		return resolveReportFormat(&applyOpts.output, cfg)
	},
	RunE: runApply,
}

var applyOpts struct {
	output  common.CommandConfig
	profile string
}

func init() {
	applyCmd.Flags().StringVar(&applyOpts.profile, "profile", "", "Applicant profile YAML file")
	applyCmd.Flags().Duration("timeout", 0, "Overall submission timeout (overrides config)")
	applyCmd.Flags().String("chrome-path", "", "Chrome executable (overrides config)")
	applyCmd.Flags().StringVarP(&applyOpts.output.OutputFile, "output", "o", "", "Report file path (default: stdout)")
	applyCmd.Flags().StringVar(&applyOpts.output.OutputFormat, "format", "", "Report format: json, text, or markdown")
	_ = applyCmd.MarkFlagRequired("profile")

	bindFlag(applyCmd, "browser.timeout", "timeout")
	bindFlag(applyCmd, "browser.chromePath", "chrome-path")
	registerFormatCompletion(applyCmd, "format")
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	profile, err := submit.LoadProfile(applyOpts.profile)
	if err != nil {
		return err
	}

	resumePath, err := filepath.Abs(args[0])
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Invalid resume path", err)
	}
	target := args[1]

	logger.Info("Submitting application", "target", target, "resume", resumePath)
	outcome := submit.NewBrowserSubmitter(cfg.Browser, logger).Submit(cmd.Context(), submit.Application{
		ResumePath: resumePath,
		TargetURL:  target,
		Profile:    *profile,
	})

	if err := common.NewOutputHandler(logger).HandleOutput(outcome.Report(target), applyOpts.output); err != nil {
		return err
	}

	if !outcome.Submitted {
		return errors.NewNetworkError(errors.ErrCodeSubmissionFailed, "Application was not submitted", nil).
			WithContext("reason", string(outcome.Reason)).
			WithContext("detail", outcome.Detail)
	}
	logger.Info("Application submitted", "target", target, "steps", len(outcome.Steps))
	return nil
}
