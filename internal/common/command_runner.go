package common

import (
	"context"
	"fmt"
	"io"

	"resumescreener/internal/errors"
)

// Command describes a file based CLI command.
type Command[Input, Output any] struct {
	// ReadInput builds the operation input from the command arguments.
	ReadInput func(fp *FileProcessor, args []string) (Input, error)
	// Run performs the operation.
	Run func(ctx context.Context, input Input) (Output, error)
	// OutputOnError writes the output even when Run fails; the Run error is
	// still returned afterwards.
	OutputOnError bool
	// AfterOutput runs once the output has been written, e.g. to export
	// additional reports or decide the exit status.
	AfterOutput func(oh *OutputHandler, input Input, output Output) error
}

// RunCommand reads the input, runs the operation and writes its output with
// the configured format.
func RunCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	maxFileSize int64,
	stdout io.Writer,
	args []string,
	cmd Command[Input, Output],
) error {
	fileProcessor := NewFileProcessor(logger, maxFileSize)
	outputHandler := NewOutputHandler(fileProcessor, stdout, logger)

	input, err := cmd.ReadInput(fileProcessor, args)
	if err != nil {
		return err
	}

	result, runErr := cmd.Run(ctx, input)
	if runErr != nil && !cmd.OutputOnError {
		return runErr
	}

	if err := outputHandler.HandleOutput(result, cmdConfig); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if runErr != nil {
		return runErr
	}

	if cmd.AfterOutput != nil {
		return cmd.AfterOutput(outputHandler, input, result)
	}
	return nil
}
