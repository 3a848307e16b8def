package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"resumescreener/internal/errors"
	"resumescreener/internal/types"
)

var csvColumns = []string{
	"Rank", "Name", "Overall Score", "Skills Score", "Experience Score", "Education Score",
	"Matched Skills", "Skill Gaps", "Strengths", "Explanation",
}

// ToCSV writes results as CSV preceded by '#' comment lines carrying the
// generation time, the first 200 characters of the job summary and the
// candidate count.
func ToCSV(results []types.CandidateResult, jobSummary string, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Resume Screening Results\n")
	fmt.Fprintf(&buf, "# Generated: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&buf, "# Job Summary: %s...\n", truncate(jobSummary, 200))
	fmt.Fprintf(&buf, "# Total Candidates: %d\n", len(results))
	buf.WriteString("#\n")

	w := csv.NewWriter(&buf)
	if err := w.Write(csvColumns); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeExportFailed, "Failed to write CSV header", err)
	}
	for _, r := range results {
		record := []string{
			strconv.Itoa(r.Rank),
			r.Name,
			percent(r.OverallScore),
			percent(r.SkillsScore),
			percent(r.ExperienceScore),
			percent(r.EducationScore),
			strings.Join(r.MatchedSkills, ", "),
			strings.Join(r.SkillGaps, ", "),
			strings.Join(r.Strengths, ", "),
			r.Explanation,
		}
		if err := w.Write(record); err != nil {
			return nil, errors.NewIOError(errors.ErrCodeExportFailed, "Failed to write CSV row", err).
				WithContext("rank", r.Rank)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeExportFailed, "Failed to write CSV", err)
	}
	return buf.Bytes(), nil
}
