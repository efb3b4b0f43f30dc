package cli

import (
	"context"

	"resumeforge/internal/ai"
	"resumeforge/internal/common"
	"resumeforge/internal/config"
	"resumeforge/internal/tailor"
	"resumeforge/internal/types"
	"resumeforge/internal/utils"

	"github.com/spf13/cobra"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor [resume.docx] [job-description-file]",
	Short: "Tailor a resume for a specific job description",
	Long: `Tailor your resume for a specific job description using AI.

The resume must be a .docx document. The job description may be plain text,
Markdown, PDF, HTML or .docx. In preserve mode (the default) only the bullet
points of the resume are rewritten and the layout is kept; rebuild mode lays
the generated resume out as a fresh document.

The tailored document is written to --output and a report of what changed is
printed in --report-format.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		return resolveReportFormat(&tailorOpts.report, cfg)
	},
	RunE: runTailor,
}

type documentOptions struct {
	document string
	mode     string
	report   common.CommandConfig
}

var tailorOpts documentOptions

func init() {
	tailorCmd.Flags().StringVarP(&tailorOpts.document, "output", "o", "tailored_resume.docx", "Path of the tailored .docx document")
	tailorCmd.Flags().StringVar(&tailorOpts.mode, "mode", "", "Tailoring mode: preserve or rebuild (default from config)")
	tailorCmd.Flags().StringVar(&tailorOpts.report.OutputFormat, "report-format", "", "Report format: json, text, or markdown")
	tailorCmd.Flags().StringVar(&tailorOpts.report.OutputFile, "report", "", "Report file path (default: stdout)")

	registerFormatCompletion(tailorCmd, "report-format")
}

func runTailor(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	mode, err := common.ValidateTailorMode(tailorOpts.mode, types.TailorMode(cfg.App.TailorMode))
	if err != nil {
		return err
	}

	generator, err := ai.NewGenerator(cfg.AI, logger)
	if err != nil {
		return err
	}
	defer func() { _ = generator.Close() }()

	prompts, err := ai.NewPromptLibrary(cfg.AI.Prompts, logger)
	if err != nil {
		return err
	}
	svc := tailor.NewService(generator, prompts, cfg.AI.Provider, mode, nil, logger)
	outputHandler := common.NewOutputHandler(logger)

	createInput := func(files []common.InputFile) (tailor.Input, error) {
		if err := checkInputExtensions(cfg, files[0], files[1]); err != nil {
			return tailor.Input{}, err
		}
		job, err := files[1].Text()
		if err != nil {
			return tailor.Input{}, err
		}
		return tailor.Input{Resume: files[0].Data, JobDescription: job, Mode: mode}, nil
	}

	logDetails := func(input tailor.Input, report common.CommandConfig) {
		logger.Info("Starting resume tailoring",
			"resume_bytes", len(input.Resume),
			"job_chars", len(input.JobDescription),
			"mode", string(input.Mode),
			"report_format", report.OutputFormat)
	}

	operation := func(ctx context.Context, input tailor.Input) (types.TailorReport, *types.TokenUsage, error) {
		result, err := svc.Tailor(ctx, input)
		if err != nil {
			return types.TailorReport{}, nil, err
		}
		if err := outputHandler.WriteDocument(tailorOpts.document, result.Document); err != nil {
			return types.TailorReport{}, nil, err
		}
		report := result.Report
		report.OutputFile = tailorOpts.document
		return report, report.TokenUsage, nil
	}

	if err := common.RunFileCommand(cmd.Context(), logger, tailorOpts.report, args, createInput, operation, logDetails); err != nil {
		return err
	}

	logger.Info("Resume tailoring completed successfully", "output", tailorOpts.document)
	return nil
}

// checkInputExtensions applies the configured resume and job extension lists
func checkInputExtensions(cfg *config.Config, resume, job common.InputFile) error {
	if err := utils.RequireExtension(resume.Name, cfg.App.ResumeExtensions...); err != nil {
		return err
	}
	return utils.RequireExtension(job.Name, cfg.App.JobExtensions...)
}

// resolveReportFormat applies the configured default format and validates it
func resolveReportFormat(report *common.CommandConfig, cfg *config.Config) error {
	if report.OutputFormat == "" {
		report.OutputFormat = cfg.App.DefaultFormat
	}
	return common.ValidateOutputFormat(report.OutputFormat, cfg.App.SupportedFormats)
}

func registerFormatCompletion(cmd *cobra.Command, flag string) {
	_ = cmd.RegisterFlagCompletionFunc(flag, func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return common.CompleteFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}
