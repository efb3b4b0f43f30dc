package cli

import (
	"context"

	"resumeforge/internal/common"
	"resumeforge/internal/tailor"
	"resumeforge/internal/types"
	"resumeforge/internal/utils"

	"github.com/spf13/cobra"
)

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct [resume.docx] [replacement-file]",
	Short: "Substitute bullet lines into a resume without calling a model",
	Long: `Reconstruct replaces the list paragraphs of a .docx resume, in order, with
the bullet lines ("- " or "• ") of a replacement text. Every other
paragraph is kept as it is. Surplus bullets are dropped and surplus list
paragraphs keep their original text.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		return resolveReportFormat(&reconstructOpts.report, cfg)
	},
	RunE: runReconstruct,
}

var reconstructOpts documentOptions

type reconstructInput struct {
	resume      []byte
	replacement string
}

func init() {
	reconstructCmd.Flags().StringVarP(&reconstructOpts.document, "output", "o", "reconstructed_resume.docx", "Path of the rewritten .docx document")
	reconstructCmd.Flags().StringVar(&reconstructOpts.report.OutputFormat, "report-format", "", "Report format: json, text, or markdown")
	reconstructCmd.Flags().StringVar(&reconstructOpts.report.OutputFile, "report", "", "Report file path (default: stdout)")

	registerFormatCompletion(reconstructCmd, "report-format")
}

func runReconstruct(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	outputHandler := common.NewOutputHandler(logger)

	createInput := func(files []common.InputFile) (reconstructInput, error) {
		if err := utils.RequireExtension(files[0].Name, cfg.App.ResumeExtensions...); err != nil {
			return reconstructInput{}, err
		}
		// The replacement is line-oriented text in any extension; parsing it
		// as Markdown or HTML would strip the bullet markers.
		return reconstructInput{resume: files[0].Data, replacement: string(files[1].Data)}, nil
	}

	operation := func(_ context.Context, input reconstructInput) (types.TailorReport, *types.TokenUsage, error) {
		result, err := tailor.Reconstruct(input.resume, input.replacement)
		if err != nil {
			return types.TailorReport{}, nil, err
		}
		if err := outputHandler.WriteDocument(reconstructOpts.document, result.Document); err != nil {
			return types.TailorReport{}, nil, err
		}
		report := result.Report
		report.OutputFile = reconstructOpts.document
		return report, nil, nil
	}

	return common.RunFileCommand(cmd.Context(), logger, reconstructOpts.report, args, createInput, operation, nil)
}
