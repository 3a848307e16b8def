package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"resumescreener/internal/common"
	"resumescreener/internal/config"
	"resumescreener/internal/errors"
	"resumescreener/internal/export"
	"resumescreener/internal/screening"
	"resumescreener/internal/types"
	"resumescreener/internal/validation"

	"github.com/spf13/cobra"
)

var screenCmd = &cobra.Command{
	Use:   "screen --job [job-description-file] [resume-file...]",
	Short: "Screen and rank resumes against a job description",
	Long: `Screen a batch of resumes against a job description.

Requirements are extracted from the job description, every resume is parsed
and scored on skills, experience and education, and candidates are ranked by
overall score. Resumes that fail to parse are skipped and reported in the
error summary of the report.

Resumes are PDF files by default; use --text for plain text resumes.
Use --csv and --pdf to export the ranking in addition to the report.`,
	Example: `  screener screen --job job.txt alice.pdf bob.pdf
  screener screen --job job.txt --text --format markdown resumes/*.txt
  screener screen --job job.txt --csv ranking.csv --pdf ranking.pdf *.pdf`,
	Args: cobra.ArbitraryArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return applyOutputFormat(&screenOpts.CommandConfig, getConfigFromContext(cmd.Context()))
	},
	RunE: runScreen,
}

// screenOptions holds the flags of the screen command.
type screenOptions struct {
	common.CommandConfig
	JobFile        string
	CSVFile        string
	PDFFile        string
	Text           bool
	NoExplanations bool
	Progress       bool
}

var screenOpts screenOptions

const msgNothingRanked = "No candidates were ranked"

// reportScreener is the part of screening.Screener the command needs.
type reportScreener interface {
	Screen(ctx context.Context, req screening.Request) (types.ScreeningReport, error)
}

func init() {
	screenCmd.Flags().StringVarP(&screenOpts.JobFile, "job", "j", "", "Job description file (required)")
	screenCmd.Flags().BoolVar(&screenOpts.Text, "text", false, "Treat resume files as plain text instead of PDF")
	screenCmd.Flags().BoolVar(&screenOpts.NoExplanations, "no-explanations", false, "Skip AI explanations of the ranking")
	screenCmd.Flags().StringVarP(&screenOpts.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	screenCmd.Flags().StringVar(&screenOpts.OutputFormat, "format", "", "Output format: json, yaml, text, or markdown")
	screenCmd.Flags().StringVar(&screenOpts.CSVFile, "csv", "", "Also export the ranking as CSV to this file")
	screenCmd.Flags().StringVar(&screenOpts.PDFFile, "pdf", "", "Also export the ranking as a PDF report to this file")
	screenCmd.Flags().BoolVar(&screenOpts.Progress, "progress", false, "Print pipeline progress to stderr")

	_ = screenCmd.MarkFlagRequired("job")
	_ = screenCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	svc, err := newServices(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	logger.Info("Starting resume screening",
		"job_file", screenOpts.JobFile,
		"resumes", len(args),
		"source", sourceName(screenOpts.Text),
		"output_format", screenOpts.OutputFormat)

	err = common.RunCommand(cmd.Context(), logger, screenOpts.CommandConfig, cfg.App.MaxFileSize,
		cmd.OutOrStdout(), args, screenCommand(cfg, screenOpts, svc.screener, cmd.ErrOrStderr(), time.Now))
	if err != nil {
		return fmt.Errorf("screening failed: %w", err)
	}
	logger.Info("Resume screening completed successfully")
	return nil
}

func sourceName(text bool) string {
	if text {
		return screening.SourceText
	}
	return screening.SourceDocuments
}

// screenCommand reads and validates the batch, runs it, and exports the
// ranking once the report has been written.
func screenCommand(cfg *config.Config, opts screenOptions, screener reportScreener, progress io.Writer, now func() time.Time) common.Command[screening.Request, types.ScreeningReport] {
	limits := cfg.Screening

	return common.Command[screening.Request, types.ScreeningReport]{
		ReadInput: func(fp *common.FileProcessor, args []string) (screening.Request, error) {
			if err := validation.ValidateFileCount(len(args), limits.MaxFiles); err != nil {
				return screening.Request{}, err
			}

			jobDescription, err := fp.ReadFile(opts.JobFile)
			if err != nil {
				return screening.Request{}, err
			}
			if err := validation.ValidateJobDescription(jobDescription, limits.MinJobDescriptionLength, limits.MaxJobDescriptionLength); err != nil {
				return screening.Request{}, err
			}

			req := screening.Request{
				JobDescription:       jobDescription,
				GenerateExplanations: limits.GenerateExplanations && !opts.NoExplanations,
			}
			if opts.Progress {
				req.OnStatus = progressPrinter(progress)
			}

			if opts.Text {
				req.Texts, err = fp.ReadTextFiles(args...)
				return req, err
			}

			req.Documents, err = fp.ReadDocuments(args...)
			if err != nil {
				return screening.Request{}, err
			}
			return req, validation.ValidateDocuments(req.Documents, limits.MaxFiles)
		},
		Run:           screener.Screen,
		OutputOnError: true,
		AfterOutput: func(oh *common.OutputHandler, req screening.Request, report types.ScreeningReport) error {
			if len(report.Results) == 0 {
				return errors.NewInternalError(errors.ErrCodeScreeningFailed, msgNothingRanked, nil)
			}
			if opts.CSVFile != "" {
				data, err := export.ToCSV(report.Results, req.JobDescription, now())
				if err != nil {
					return err
				}
				if err := oh.WriteExport(opts.CSVFile, "csv", data); err != nil {
					return err
				}
			}
			if opts.PDFFile != "" {
				data, err := export.ToPDF(report.Results, req.JobDescription, now())
				if err != nil {
					return err
				}
				if err := oh.WriteExport(opts.PDFFile, "pdf", data); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// progressPrinter writes one line per status snapshot.
func progressPrinter(w io.Writer) screening.StatusFunc {
	if w == nil {
		w = os.Stderr
	}
	return func(status types.ProcessingStatus) {
		line := fmt.Sprintf("[%s] %d/%d (%.1fs)", status.CurrentAgent, status.ProcessedCount, status.TotalCount, status.ElapsedSeconds)
		if status.ErrorMessage != nil {
			line += " error: " + *status.ErrorMessage
		}
		if status.IsComplete {
			line += " done"
		}
		fmt.Fprintln(w, line)
	}
}
