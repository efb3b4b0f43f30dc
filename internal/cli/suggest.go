package cli

import (
	"context"

	"resumeforge/internal/common"
	"resumeforge/internal/suggest"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest [resume-file] [job-description-file]",
	Short: "List job keywords missing from a resume",
	Long: `Suggest ranks the keywords of a job description by frequency and reports
which of them the resume already mentions. No model is called.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if !cmd.Flags().Changed("top") {
			suggestOpts.top = cfg.App.SuggestionsTopN
		}
		if !cmd.Flags().Changed("min-length") {
			suggestOpts.minLength = cfg.App.SuggestionsMinLen
		}
		return resolveReportFormat(&suggestOpts.output, cfg)
	},
	RunE: runSuggest,
}

var suggestOpts struct {
	output    common.CommandConfig
	top       int
	minLength int
}

type suggestInput struct {
	resume string
	job    string
}

func init() {
	suggestCmd.Flags().StringVarP(&suggestOpts.output.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	suggestCmd.Flags().StringVar(&suggestOpts.output.OutputFormat, "format", "", "Output format: json, text, or markdown")
	suggestCmd.Flags().IntVar(&suggestOpts.top, "top", suggest.DefaultTopN, "Number of job keywords to compare")
	suggestCmd.Flags().IntVar(&suggestOpts.minLength, "min-length", suggest.DefaultMinLength, "Shortest keyword considered")

	registerFormatCompletion(suggestCmd, "format")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	createInput := func(files []common.InputFile) (suggestInput, error) {
		resume, err := files[0].Text()
		if err != nil {
			return suggestInput{}, err
		}
		job, err := files[1].Text()
		if err != nil {
			return suggestInput{}, err
		}
		return suggestInput{resume: resume, job: job}, nil
	}

	operation := func(_ context.Context, input suggestInput) (types.SuggestionReport, *types.TokenUsage, error) {
		report := suggest.Analyze(input.resume, input.job, suggest.Options{
			TopN:      suggestOpts.top,
			MinLength: suggestOpts.minLength,
		})
		logger.Info("Keyword comparison completed",
			"score", report.Score,
			"keywords", len(report.Keywords),
			"missing", len(report.Missing))
		return report, nil, nil
	}

	return common.RunFileCommand(cmd.Context(), logger, suggestOpts.output, args, createInput, operation, nil)
}
