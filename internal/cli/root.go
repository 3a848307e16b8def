package cli

import (
	"context"
	"fmt"
	"time"

	"resumescreener/internal/ai"
	"resumescreener/internal/common"
	"resumescreener/internal/config"
	"resumescreener/internal/errors"
	"resumescreener/internal/observability"
	"resumescreener/internal/screening"
	"resumescreener/internal/validation"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Screen and rank resumes against a job description using AI",
	Long: `screener extracts requirements from a job description, parses each
resume with Gemini, scores every candidate on skills, experience and
education, and ranks them with a short explanation of each match.

Reports can be printed as JSON, YAML, text or Markdown and exported as CSV
or PDF. The same pipeline is available over HTTP with 'screener serve'.`,
	SilenceUsage: true,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// services bundles the long lived collaborators of a command.
type services struct {
	observability *observability.Manager
	ai            *ai.Service
	screener      *screening.Screener
	logger        *errors.Logger
}

// newServices wires observability, the AI service and the screener. Metrics
// from both the AI calls and the screening runs go to the same manager.
func newServices(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*services, error) {
	om, err := observability.NewManager(observability.GetObservabilityConfig(cfg, Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	service, err := ai.NewService(ctx, cfg, logger, ai.WithRecorder(om))
	if err != nil {
		shutdownObservability(om, logger)
		return nil, fmt.Errorf("failed to create AI service: %w", err)
	}

	screener := screening.NewScreener(service.Requirements, service.Resumes, service.Explanations, logger,
		screening.WithRecorder(om),
		screening.WithSummaryLength(cfg.Screening.JobSummaryLength))

	return &services{observability: om, ai: service, screener: screener, logger: logger}, nil
}

func (s *services) Close() {
	if err := s.ai.Close(); err != nil {
		s.logger.LogError(err, "Failed to close AI service")
	}
	shutdownObservability(s.observability, s.logger)
}

func shutdownObservability(om *observability.Manager, logger *errors.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		logger.LogError(err, "Failed to shutdown observability")
	}
}

// applyOutputFormat fills in the default format and checks it against the
// configured formats.
func applyOutputFormat(cmdConfig *common.CommandConfig, cfg *config.Config) error {
	if cmdConfig.OutputFormat == "" {
		cmdConfig.OutputFormat = cfg.App.DefaultFormat
	}
	return validation.ValidateOutputFormat(cmdConfig.OutputFormat, common.SupportedFormats(cfg.App.SupportedFormats))
}

func completeFormats(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	cfg := getConfigFromContext(cmd.Context())
	return common.SupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
