// Package export renders a ranked candidate list as report files.
package export

import (
	"fmt"
	"strings"
	"time"

	"resumescreener/internal/types"
)

// Summarize returns the first n characters of a job description with
// surrounding whitespace removed.
func Summarize(jobDescription string, n int) string {
	return truncate(strings.TrimSpace(jobDescription), n)
}

// Metadata describes an export. Top candidate fields are nil for an empty list.
func Metadata(results []types.CandidateResult, jobSummary string, now time.Time) types.ExportMetadata {
	meta := types.ExportMetadata{
		Timestamp:       now.Format(time.RFC3339),
		JobSummary:      jobSummary,
		TotalCandidates: len(results),
	}
	if len(results) > 0 {
		name := results[0].Name
		score := results[0].OverallScore
		meta.TopCandidate = &name
		meta.TopScore = &score
	}
	return meta
}

func percent(score float64) string {
	return fmt.Sprintf("%.1f%%", score)
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	runes := []rune(s)
	if n < 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func joinFirst(items []string, n int) string {
	if len(items) == 0 {
		return "None"
	}
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}
