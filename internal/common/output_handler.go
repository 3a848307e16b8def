package common

import (
	"fmt"
	"io"
	"slices"

	"resumescreener/internal/errors"
	"resumescreener/internal/formatters"
)

// CommandConfig holds common configuration for commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler handles formatting and writing output
type OutputHandler struct {
	fileProcessor *FileProcessor
	registry      *formatters.FormatterRegistry
	logger        *errors.Logger
	stdout        io.Writer
}

// NewOutputHandler creates an output handler that prints to stdout when no
// output file is configured.
func NewOutputHandler(fileProcessor *FileProcessor, stdout io.Writer, logger *errors.Logger) *OutputHandler {
	return &OutputHandler{
		fileProcessor: fileProcessor,
		registry:      formatters.GlobalRegistry,
		logger:        logger,
		stdout:        stdout,
	}
}

// HandleOutput formats data and writes it to the specified output
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	if err := oh.fileProcessor.ValidateOutputFile(config.OutputFile); err != nil {
		return err
	}

	output, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}

	if config.OutputFile == "" {
		_, err := io.WriteString(oh.stdout, output)
		return err
	}

	if err := oh.fileProcessor.WriteFile(config.OutputFile, []byte(output)); err != nil {
		return err
	}
	oh.logger.Info("Output written successfully",
		"file", config.OutputFile, "format", config.OutputFormat)
	return nil
}

// WriteExport writes an exported report (CSV or PDF) to filename.
func (oh *OutputHandler) WriteExport(filename, kind string, content []byte) error {
	if err := oh.fileProcessor.ValidateOutputFile(filename); err != nil {
		return err
	}
	if err := oh.fileProcessor.WriteFile(filename, content); err != nil {
		return err
	}
	oh.logger.Info("Report exported", "file", filename, "kind", kind, "bytes", len(content))
	return nil
}

// SupportedFormats returns the configured formats the registry can render.
// An empty configuration allows every registered format.
func SupportedFormats(configured []string) []string {
	registered := formatters.GlobalRegistry.GetSupportedFormats()
	if len(configured) == 0 {
		return registered
	}

	var formats []string
	for _, format := range configured {
		if slices.Contains(registered, format) {
			formats = append(formats, format)
		}
	}
	return formats
}
