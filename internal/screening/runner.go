package screening

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"resumescreener/internal/errors"
	"resumescreener/internal/types"
)

// Fatal run messages.
const (
	MsgAnalyzeFailed   = "Failed to analyze job description: %s"
	MsgNoResumesParsed = "No resumes could be parsed"
	MsgNoMatches       = "No candidates could be matched"
)

// unknownCandidate names a resume whose extractor found no name.
const unknownCandidate = "Unknown"

// RequirementExtractor turns a job description into structured requirements.
type RequirementExtractor interface {
	ExtractRequirements(ctx context.Context, jobDescription string) (types.JobRequirements, error)
}

// ResumeExtractor turns one candidate's resume into a structured record.
type ResumeExtractor interface {
	ExtractResume(ctx context.Context, text string) (types.ResumeRecord, error)
	ExtractResumeDocument(ctx context.Context, document []byte) (types.ResumeRecord, error)
}

// RunError describes a screening run that did not fully succeed. Fatal
// errors come with no results; otherwise Failures lists the candidates that
// were skipped.
type RunError struct {
	Message  string
	Fatal    bool
	Failures []string
}

func (e *RunError) Error() string {
	return e.Message
}

// Runner drives one screening run: requirements, then each resume in
// order, then matching and ranking. A Runner handles one run at a time.
type Runner struct {
	requirements RequirementExtractor
	resumes      ResumeExtractor
	matcher      CandidateMatcher
	ranker       *Ranker
	logger       *errors.Logger
	now          func() time.Time

	mu     sync.Mutex
	status *types.ProcessingStatus
}

// Option customizes a Runner.
type Option func(*Runner)

// WithClock replaces time.Now for elapsed time measurement.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner wires the collaborators of a screening run.
func NewRunner(requirements RequirementExtractor, resumes ResumeExtractor, ranker *Ranker, logger *errors.Logger, opts ...Option) *Runner {
	r := &Runner{
		requirements: requirements,
		resumes:      resumes,
		matcher:      NewScoreMatcher(),
		ranker:       ranker,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Status returns the latest snapshot of the run in flight, or nil when no
// run is active.
func (r *Runner) Status() *types.ProcessingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == nil {
		return nil
	}
	snapshot := *r.status
	return &snapshot
}

// Process screens PDF documents against a job description.
func (r *Runner) Process(ctx context.Context, documents [][]byte, jobDescription string, onStatus StatusFunc, generateExplanations bool) ([]types.CandidateResult, error) {
	parse := func(ctx context.Context, i int) (types.ResumeRecord, error) {
		return r.resumes.ExtractResumeDocument(ctx, documents[i])
	}
	return r.run(ctx, len(documents), parse, jobDescription, onStatus, generateExplanations)
}

// ProcessText screens plain-text resumes against a job description.
func (r *Runner) ProcessText(ctx context.Context, texts []string, jobDescription string, onStatus StatusFunc, generateExplanations bool) ([]types.CandidateResult, error) {
	parse := func(ctx context.Context, i int) (types.ResumeRecord, error) {
		return r.resumes.ExtractResume(ctx, texts[i])
	}
	return r.run(ctx, len(texts), parse, jobDescription, onStatus, generateExplanations)
}

type parseFunc func(ctx context.Context, index int) (types.ResumeRecord, error)

func (r *Runner) run(ctx context.Context, total int, parse parseFunc, jobDescription string, onStatus StatusFunc, generateExplanations bool) ([]types.CandidateResult, error) {
	tracker := &statusTracker{
		start:    r.now(),
		now:      r.now,
		onStatus: onStatus,
		publish:  r.setStatus,
	}
	defer r.setStatus(nil)

	tracker.emit(types.StageAnalyzer, 0, total)
	requirements, err := r.requirements.ExtractRequirements(ctx, jobDescription)
	if err != nil {
		reason := errors.UserMessage(err)
		r.logger.LogError(err, "Failed to analyze job description")
		tracker.fail(types.StageAnalyzer, 0, total, reason)
		return []types.CandidateResult{}, &RunError{Message: fmt.Sprintf(MsgAnalyzeFailed, reason), Fatal: true}
	}

	var failures []string

	parsed := make([]types.ResumeRecord, 0, total)
	for i := 0; i < total; i++ {
		tracker.emit(types.StageParser, i, total)

		resume, err := parse(ctx, i)
		if err != nil {
			reason := errors.UserMessage(err)
			r.logger.Warn("Failed to parse resume", "index", i+1, "error", reason)
			failures = append(failures, fmt.Sprintf("Resume %d: %s", i+1, reason))
			continue
		}
		if resume.Name = strings.TrimSpace(resume.Name); resume.Name == "" {
			resume.Name = unknownCandidate
		}
		parsed = append(parsed, resume)
	}

	if len(parsed) == 0 {
		tracker.fail(types.StageParser, total, total, MsgNoResumesParsed)
		return []types.CandidateResult{}, &RunError{Message: MsgNoResumesParsed, Fatal: true, Failures: failures}
	}

	matches := make([]types.MatchResult, 0, len(parsed))
	for i, resume := range parsed {
		tracker.emit(types.StageMatcher, i, len(parsed))

		match, err := r.safeMatch(resume, requirements)
		if err != nil {
			r.logger.Warn("Failed to match candidate", "candidate", resume.Name, "error", err.Error())
			failures = append(failures, fmt.Sprintf("Matching %s: %s", resume.Name, err.Error()))
			continue
		}
		matches = append(matches, match)
	}

	if len(matches) == 0 {
		tracker.fail(types.StageMatcher, len(parsed), len(parsed), MsgNoMatches)
		return []types.CandidateResult{}, &RunError{Message: MsgNoMatches, Fatal: true, Failures: failures}
	}

	tracker.emit(types.StageRanker, 0, len(matches))
	results, err := r.safeRank(ctx, matches, generateExplanations)
	if err != nil {
		r.logger.Error("Failed to rank candidates", "error", err.Error())
		results = r.ranker.Rank(ctx, matches, false)
	}

	tracker.complete(len(results))

	if len(failures) == 0 {
		return results, nil
	}
	return results, &RunError{Message: strings.Join(failures, "; "), Failures: failures}
}

// safeMatch turns a matcher panic into an error for this candidate only.
func (r *Runner) safeMatch(resume types.ResumeRecord, requirements types.JobRequirements) (match types.MatchResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()
	return r.matcher.Match(resume, requirements), nil
}

func (r *Runner) safeRank(ctx context.Context, matches []types.MatchResult, generateExplanations bool) (results []types.CandidateResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()
	return r.ranker.Rank(ctx, matches, generateExplanations), nil
}

func (r *Runner) setStatus(status *types.ProcessingStatus) {
	r.mu.Lock()
	r.status = status
	r.mu.Unlock()
}
