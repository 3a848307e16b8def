package screening

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescreener/internal/types"
)

type summaryLog struct {
	summaries []RunSummary
}

func (s *summaryLog) RecordScreening(_ context.Context, summary RunSummary) {
	s.summaries = append(s.summaries, summary)
}

func newTestScreener(recorder RunRecorder) *Screener {
	requirements := &fakeRequirements{requirements: types.JobRequirements{
		Title:          "Backend Engineer",
		RequiredSkills: []string{"Go", "SQL"},
	}}
	resumes := &fakeResumes{skills: map[string][]string{
		"alice": {"go", "sql"},
		"carol": {"Go"},
	}}
	clock := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	s := NewScreener(requirements, resumes, nil, testLogger,
		WithRecorder(recorder),
		WithSummaryLength(10),
		WithScreenerClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}))
	s.newID = func() string { return "run-1" }
	return s
}

func TestScreenText(t *testing.T) {
	recorder := &summaryLog{}
	screener := newTestScreener(recorder)

	report, err := screener.Screen(context.Background(), Request{
		Texts:          []string{"carol", "bad-bob", "alice"},
		JobDescription: "  Go developer with SQL  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, types.SchemaVersion, report.SchemaVersion)
	assert.Equal(t, []string{"alice", "carol"}, names(report.Results))
	assert.Equal(t, "Go develop", report.Metadata.JobSummary)
	assert.Equal(t, 2, report.Metadata.TotalCandidates)
	require.NotNil(t, report.Metadata.TopCandidate)
	assert.Equal(t, "alice", *report.Metadata.TopCandidate)
	require.NotNil(t, report.Error)
	assert.True(t, strings.HasPrefix(*report.Error, "Resume 2:"))

	require.Len(t, recorder.summaries, 1)
	summary := recorder.summaries[0]
	assert.Equal(t, SourceText, summary.Source)
	assert.Equal(t, 3, summary.Submitted)
	assert.Equal(t, 2, summary.Ranked)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.Fatal)
	assert.Positive(t, summary.Duration)
}

func TestScreenDocumentsFatal(t *testing.T) {
	recorder := &summaryLog{}
	screener := newTestScreener(recorder)

	report, err := screener.Screen(context.Background(), Request{
		Documents:      [][]byte{[]byte("bad-1"), []byte("bad-2")},
		JobDescription: "Go developer",
	})

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.True(t, runErr.Fatal)
	assert.Equal(t, MsgNoResumesParsed, runErr.Message)

	assert.Empty(t, report.Results)
	require.NotNil(t, report.Error)
	assert.Equal(t, MsgNoResumesParsed, *report.Error)
	assert.Nil(t, report.Metadata.TopCandidate)

	require.Len(t, recorder.summaries, 1)
	assert.Equal(t, SourceDocuments, recorder.summaries[0].Source)
	assert.True(t, recorder.summaries[0].Fatal)
	assert.Equal(t, 2, recorder.summaries[0].Failed)
}

func TestScreenReportsStatus(t *testing.T) {
	screener := newTestScreener(nil)
	log := &statusLog{}

	_, err := screener.Screen(context.Background(), Request{
		Texts:          []string{"alice"},
		JobDescription: "Go developer",
		OnStatus:       log.record,
	})
	require.NoError(t, err)
	assert.True(t, log.last().IsComplete)
}

func TestScreenActiveRuns(t *testing.T) {
	screener := newTestScreener(nil)
	assert.Empty(t, screener.ActiveRuns())

	var stages []string
	_, err := screener.Screen(context.Background(), Request{
		Texts:          []string{"alice", "carol"},
		JobDescription: "Go developer",
		OnStatus: func(status types.ProcessingStatus) {
			runs := screener.ActiveRuns()
			require.Contains(t, runs, "run-1")
			assert.Equal(t, status.CurrentAgent, runs["run-1"].CurrentAgent)
			assert.Equal(t, status.ProcessedCount, runs["run-1"].ProcessedCount)
			stages = append(stages, runs["run-1"].CurrentAgent)
		},
	})
	require.NoError(t, err)

	assert.Contains(t, stages, types.StageParser)
	assert.Contains(t, stages, types.StageRanker)
	assert.Empty(t, screener.ActiveRuns())
}

func TestAnalyze(t *testing.T) {
	screener := newTestScreener(nil)

	req, err := screener.Analyze(context.Background(), "Go developer")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", req.Title)

	_, err = screener.Analyze(context.Background(), " ")
	assert.Error(t, err)
}
