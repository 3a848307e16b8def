package screening

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"resumescreener/internal/errors"
	"resumescreener/internal/export"
	"resumescreener/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Source of the resumes in a screening request.
const (
	SourceDocuments = "pdf"
	SourceText      = "text"
)

// RunSummary is reported to a RunRecorder after every screening run.
type RunSummary struct {
	Source    string
	Submitted int
	Ranked    int
	Failed    int
	TopScore  *float64
	Duration  time.Duration
	Fatal     bool
}

// RunRecorder receives one summary per screening run.
type RunRecorder interface {
	RecordScreening(ctx context.Context, summary RunSummary)
}

// Request is one screening job. Exactly one of Documents or Texts is used:
// Documents when it is non-nil.
type Request struct {
	Documents            [][]byte
	Texts                []string
	JobDescription       string
	GenerateExplanations bool
	OnStatus             StatusFunc
}

func (r Request) source() string {
	if r.Documents != nil {
		return SourceDocuments
	}
	return SourceText
}

func (r Request) size() int {
	if r.Documents != nil {
		return len(r.Documents)
	}
	return len(r.Texts)
}

// Screener runs screening requests and wraps their results in a report.
// Each request gets its own Runner, so a Screener is safe for concurrent use.
type Screener struct {
	requirements  RequirementExtractor
	resumes       ResumeExtractor
	explanations  ExplanationGenerator
	recorder      RunRecorder
	summaryLength int
	logger        *errors.Logger
	now           func() time.Time
	newID         func() string

	mu     sync.Mutex
	active map[string]*Runner
}

// ScreenerOption customizes a Screener.
type ScreenerOption func(*Screener)

// WithRecorder reports every run to r.
func WithRecorder(r RunRecorder) ScreenerOption {
	return func(s *Screener) { s.recorder = r }
}

// WithSummaryLength sets how many characters of the job description are kept
// in report metadata.
func WithSummaryLength(n int) ScreenerOption {
	return func(s *Screener) {
		if n > 0 {
			s.summaryLength = n
		}
	}
}

// WithScreenerClock replaces time.Now for report timestamps and run timing.
func WithScreenerClock(now func() time.Time) ScreenerOption {
	return func(s *Screener) { s.now = now }
}

// NewScreener wires the collaborators used for every run. explanations may be nil.
func NewScreener(requirements RequirementExtractor, resumes ResumeExtractor, explanations ExplanationGenerator, logger *errors.Logger, opts ...ScreenerOption) *Screener {
	s := &Screener{
		requirements:  requirements,
		resumes:       resumes,
		explanations:  explanations,
		summaryLength: 200,
		logger:        logger,
		now:           time.Now,
		newID:         func() string { return uuid.NewString() },
		active:        make(map[string]*Runner),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Screen runs one request. The report is always populated; the returned
// error is a *RunError only when the run failed as a whole, in which case the
// report carries the same message and no results. Partial failures are
// reported in report.Error alone.
func (s *Screener) Screen(ctx context.Context, req Request) (types.ScreeningReport, error) {
	runID := s.newID()
	logger := s.logger.With("run_id", runID)

	ctx, span := otel.Tracer("screener.screening").Start(ctx, "screening.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.String("run.source", req.source()),
		attribute.Int("run.candidates", req.size()),
		attribute.Bool("run.explanations", req.GenerateExplanations),
	)

	runner := NewRunner(s.requirements, s.resumes, NewRanker(s.explanations, logger), logger, WithClock(s.now))
	s.track(runID, runner)
	defer s.untrack(runID)

	start := s.now()
	logger.Info("Screening run started", "source", req.source(), "candidates", req.size())

	var results []types.CandidateResult
	var err error
	if req.Documents != nil {
		results, err = runner.Process(ctx, req.Documents, req.JobDescription, req.OnStatus, req.GenerateExplanations)
	} else {
		results, err = runner.ProcessText(ctx, req.Texts, req.JobDescription, req.OnStatus, req.GenerateExplanations)
	}

	now := s.now()
	report := types.ScreeningReport{
		RunID:         runID,
		Metadata:      export.Metadata(results, export.Summarize(req.JobDescription, s.summaryLength), now),
		Results:       results,
		SchemaVersion: types.SchemaVersion,
	}

	summary := RunSummary{
		Source:    req.source(),
		Submitted: req.size(),
		Ranked:    len(results),
		TopScore:  report.Metadata.TopScore,
		Duration:  now.Sub(start),
	}

	var runErr *RunError
	if err != nil {
		msg := err.Error()
		report.Error = &msg
		if stderrors.As(err, &runErr) {
			summary.Failed = len(runErr.Failures)
			summary.Fatal = runErr.Fatal
		}
	}
	if s.recorder != nil {
		s.recorder.RecordScreening(ctx, summary)
	}

	span.SetAttributes(attribute.Int("run.ranked", len(results)), attribute.Int("run.failed", summary.Failed))
	if summary.Fatal {
		span.SetStatus(codes.Error, runErr.Message)
		logger.Warn("Screening run failed", "error", runErr.Message, "duration", summary.Duration)
		return report, runErr
	}

	logger.Info("Screening run completed",
		"ranked", len(results),
		"failed", summary.Failed,
		"duration", summary.Duration)
	return report, nil
}

// ActiveRuns returns the latest status of every run in flight, keyed by run
// ID. Runs that have not reported a stage yet are left out.
func (s *Screener) ActiveRuns() map[string]types.ProcessingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := make(map[string]types.ProcessingStatus, len(s.active))
	for id, runner := range s.active {
		if status := runner.Status(); status != nil {
			runs[id] = *status
		}
	}
	return runs
}

func (s *Screener) track(runID string, runner *Runner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[runID] = runner
}

func (s *Screener) untrack(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, runID)
}

// Analyze extracts requirements from a job description without screening.
func (s *Screener) Analyze(ctx context.Context, jobDescription string) (types.JobRequirements, error) {
	return s.requirements.ExtractRequirements(ctx, jobDescription)
}
