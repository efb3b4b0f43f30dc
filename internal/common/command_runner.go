package common

import (
	"context"

	"resumeforge/internal/errors"
	"resumeforge/internal/types"
)

// CreateInputFunc defines how to create the specific input from the read files.
type CreateInputFunc[Input any] func(files []InputFile) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc is the work a command performs, reporting model token usage
// when it called a model.
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, *types.TokenUsage, error)

// RunFileCommand reads and validates args as input files, runs operation and
// writes its formatted result.
func RunFileCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	createInput CreateInputFunc[Input],
	operation OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandler(logger)

	files, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	input, err := createInput(files)
	if err != nil {
		return err
	}

	if logDetails != nil {
		logDetails(input, cmdConfig)
	}

	result, tokenUsage, err := operation(ctx, input)
	if err != nil {
		return err
	}

	if tokenUsage != nil {
		logger.Info("AI token usage",
			"input_tokens", tokenUsage.InputTokens,
			"output_tokens", tokenUsage.OutputTokens,
			"total_tokens", tokenUsage.TotalTokens)
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
