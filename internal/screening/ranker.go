package screening

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"resumescreener/internal/errors"
	"resumescreener/internal/types"
)

// ExplanationGenerator writes a short free-text explanation for a ranked candidate.
type ExplanationGenerator interface {
	GenerateExplanation(ctx context.Context, match types.MatchResult, rank int) (string, error)
}

// Ranker orders match results and attaches explanations.
type Ranker struct {
	generator ExplanationGenerator
	logger    *errors.Logger
}

// NewRanker creates a ranker. generator may be nil, in which case every
// explanation comes from the template.
func NewRanker(generator ExplanationGenerator, logger *errors.Logger) *Ranker {
	return &Ranker{generator: generator, logger: logger}
}

// Rank sorts matches by overall score then matched-skill count, both
// descending, and numbers them 1..N. Equal keys keep their input order.
func (r *Ranker) Rank(ctx context.Context, matches []types.MatchResult, generateExplanations bool) []types.CandidateResult {
	if len(matches) == 0 {
		return []types.CandidateResult{}
	}

	sorted := slices.Clone(matches)
	slices.SortStableFunc(sorted, func(a, b types.MatchResult) int {
		if c := cmp.Compare(b.OverallScore, a.OverallScore); c != 0 {
			return c
		}
		return cmp.Compare(len(b.MatchedSkills), len(a.MatchedSkills))
	})

	results := make([]types.CandidateResult, 0, len(sorted))
	for i, match := range sorted {
		rank := i + 1

		var explanation string
		if generateExplanations {
			explanation = r.explain(ctx, match, rank)
		} else {
			explanation = TemplateExplanation(match, rank)
		}

		results = append(results, types.CandidateResult{
			Rank:            rank,
			Name:            match.Resume.Name,
			OverallScore:    match.OverallScore,
			SkillsScore:     match.SkillsScore,
			ExperienceScore: match.ExperienceScore,
			EducationScore:  match.EducationScore,
			MatchedSkills:   match.MatchedSkills,
			SkillGaps:       match.SkillGaps,
			Strengths:       match.Strengths,
			Explanation:     explanation,
			SchemaVersion:   types.SchemaVersion,
		})
	}

	return results
}

func (r *Ranker) explain(ctx context.Context, match types.MatchResult, rank int) string {
	if r.generator == nil {
		return TemplateExplanation(match, rank)
	}

	text, err := r.generator.GenerateExplanation(ctx, match, rank)
	if err != nil {
		r.logger.Warn("Failed to generate AI explanation", "candidate", match.Resume.Name, "rank", rank, "error", err.Error())
		return TemplateExplanation(match, rank)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return TemplateExplanation(match, rank)
	}
	return text
}

// TemplateExplanation builds the deterministic explanation used when no
// generated text is available.
func TemplateExplanation(match types.MatchResult, rank int) string {
	parts := []string{fmt.Sprintf("Ranked #%d with %.1f%% match.", rank, match.OverallScore)}

	if len(match.MatchedSkills) > 0 {
		parts = append(parts, fmt.Sprintf("Has %d matching skills.", len(match.MatchedSkills)))
	}
	if len(match.SkillGaps) > 0 {
		parts = append(parts, fmt.Sprintf("Missing %d required skills.", len(match.SkillGaps)))
	}
	if len(match.Strengths) > 0 {
		top := match.Strengths[:min(2, len(match.Strengths))]
		parts = append(parts, fmt.Sprintf("Strengths: %s.", strings.Join(top, ", ")))
	}

	return strings.Join(parts, " ")
}
