package cli

import (
	"context"
	"fmt"

	"resumescreener/internal/common"
	"resumescreener/internal/config"
	"resumescreener/internal/types"
	"resumescreener/internal/validation"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [job-description-file]",
	Short: "Extract structured requirements from a job description",
	Long: `Run only the requirement extraction stage of the screening pipeline.

The job description is sent to the AI model and the extracted title,
required and preferred skills, minimum years of experience and education
requirements are printed. Useful for checking what a screening run will
match resumes against.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return applyOutputFormat(&analyzeConfig, getConfigFromContext(cmd.Context()))
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

// requirementsAnalyzer is the part of screening.Screener the command needs.
type requirementsAnalyzer interface {
	Analyze(ctx context.Context, jobDescription string) (types.JobRequirements, error)
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, yaml, text, or markdown")

	_ = analyzeCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	svc, err := newServices(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	logger.Info("Starting job description analysis",
		"job_file", args[0],
		"output_format", analyzeConfig.OutputFormat)

	err = common.RunCommand(cmd.Context(), logger, analyzeConfig, cfg.App.MaxFileSize,
		cmd.OutOrStdout(), args, analyzeCommand(cfg, svc.screener))
	if err != nil {
		return fmt.Errorf("failed to analyze job description: %w", err)
	}
	logger.Info("Job description analysis completed successfully")
	return nil
}

func analyzeCommand(cfg *config.Config, analyzer requirementsAnalyzer) common.Command[string, types.JobRequirements] {
	return common.Command[string, types.JobRequirements]{
		ReadInput: func(fp *common.FileProcessor, args []string) (string, error) {
			jobDescription, err := fp.ReadFile(args[0])
			if err != nil {
				return "", err
			}
			return jobDescription, validation.ValidateJobDescription(jobDescription,
				cfg.Screening.MinJobDescriptionLength, cfg.Screening.MaxJobDescriptionLength)
		},
		Run: analyzer.Analyze,
	}
}
