package screening

import (
	"fmt"
	"strings"

	"resumescreener/internal/types"
)

// Scoring weights. They sum to 1.0.
const (
	SkillsWeight     = 0.4
	ExperienceWeight = 0.4
	EducationWeight  = 0.2
)

// CandidateMatcher scores one resume against a set of job requirements.
type CandidateMatcher interface {
	Match(resume types.ResumeRecord, requirements types.JobRequirements) types.MatchResult
}

// ScoreMatcher is the exact-match CandidateMatcher. Skills are compared by
// their trimmed, lower-cased form; there is no semantic matching.
type ScoreMatcher struct{}

// NewScoreMatcher returns the default matcher.
func NewScoreMatcher() *ScoreMatcher {
	return &ScoreMatcher{}
}

// Match computes the full score breakdown for one candidate.
func (m *ScoreMatcher) Match(resume types.ResumeRecord, requirements types.JobRequirements) types.MatchResult {
	skills := SkillsScore(resume.Skills, requirements.RequiredSkills)
	experience := ExperienceScore(resume.Experience, requirements.MinExperienceYears)
	education := EducationScore(resume.Education, requirements.EducationRequirements)

	return types.MatchResult{
		Resume:          resume,
		OverallScore:    OverallScore(skills, experience, education),
		SkillsScore:     skills,
		ExperienceScore: experience,
		EducationScore:  education,
		MatchedSkills:   MatchedSkills(resume.Skills, requirements.RequiredSkills),
		SkillGaps:       SkillGaps(resume.Skills, requirements.RequiredSkills),
		Strengths:       Strengths(resume, requirements),
		SchemaVersion:   types.SchemaVersion,
	}
}

// OverallScore is the weighted sum of the three component scores.
func OverallScore(skills, experience, education float64) float64 {
	return skills*SkillsWeight + experience*ExperienceWeight + education*EducationWeight
}

// SkillsScore is the share of distinct required skills present on the resume.
func SkillsScore(resumeSkills, requiredSkills []string) float64 {
	if len(requiredSkills) == 0 {
		return 100.0
	}

	have := normalizedSet(resumeSkills)
	want := normalizedSet(requiredSkills)

	matches := 0
	for skill := range want {
		if _, ok := have[skill]; ok {
			matches++
		}
	}

	return min(100.0, float64(matches)/float64(len(want))*100)
}

// ExperienceScore compares total years of experience with the minimum.
func ExperienceScore(experience []types.ExperienceEntry, minYears int) float64 {
	if minYears <= 0 {
		return 100.0
	}

	years := totalYears(experience)
	if years >= float64(minYears) {
		return 100.0
	}
	return min(100.0, years/float64(minYears)*100)
}

// EducationScore counts requirement phrases that share at least one word
// with the candidate's combined education text. The match is a plain
// substring test, so short words such as "in" can produce false positives.
func EducationScore(education []types.EducationEntry, requirements []string) float64 {
	if len(requirements) == 0 {
		return 100.0
	}
	if len(education) == 0 {
		return 0.0
	}

	parts := make([]string, 0, len(education))
	for _, edu := range education {
		field := ""
		if edu.Field != nil {
			field = *edu.Field
		}
		parts = append(parts, strings.ToLower(fmt.Sprintf("%s %s %s", edu.Degree, field, edu.Institution)))
	}
	blob := strings.Join(parts, " ")

	matches := 0
	for _, req := range requirements {
		for _, word := range strings.Fields(strings.ToLower(req)) {
			if strings.Contains(blob, word) {
				matches++
				break
			}
		}
	}

	return min(100.0, float64(matches)/float64(len(requirements))*100)
}

// MatchedSkills returns the resume's spelling of every required skill the
// candidate has, in the order the requirements list them.
func MatchedSkills(resumeSkills, requiredSkills []string) []string {
	original := make(map[string]string, len(resumeSkills))
	for _, skill := range resumeSkills {
		original[normalizeSkill(skill)] = skill
	}

	matched := []string{}
	for _, req := range requiredSkills {
		if skill, ok := original[normalizeSkill(req)]; ok {
			matched = append(matched, skill)
		}
	}
	return matched
}

// SkillGaps returns the required skills missing from the resume, as the
// requirements spell them.
func SkillGaps(resumeSkills, requiredSkills []string) []string {
	have := normalizedSet(resumeSkills)

	gaps := []string{}
	for _, req := range requiredSkills {
		if _, ok := have[normalizeSkill(req)]; !ok {
			gaps = append(gaps, req)
		}
	}
	return gaps
}

// Strengths lists the notable points of a candidate. Each note is optional
// and they always appear in the same order.
func Strengths(resume types.ResumeRecord, requirements types.JobRequirements) []string {
	strengths := []string{}

	if matched := MatchedSkills(resume.Skills, requirements.RequiredSkills); len(matched) > 0 {
		strengths = append(strengths,
			fmt.Sprintf("Has %d of %d required skills", len(matched), len(requirements.RequiredSkills)))
	}

	years := totalYears(resume.Experience)
	if requirements.MinExperienceYears > 0 && years >= float64(requirements.MinExperienceYears) {
		strengths = append(strengths, fmt.Sprintf("Exceeds experience requirement (%.1f years)", years))
	}

	if preferred := MatchedSkills(resume.Skills, requirements.PreferredSkills); len(preferred) > 0 {
		strengths = append(strengths, fmt.Sprintf("Has %d preferred skills", len(preferred)))
	}

	return strengths
}

func totalYears(experience []types.ExperienceEntry) float64 {
	months := 0
	for _, exp := range experience {
		if exp.DurationMonths > 0 {
			months += exp.DurationMonths
		}
	}
	return float64(months) / 12
}

func normalizeSkill(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

func normalizedSet(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		set[normalizeSkill(skill)] = struct{}{}
	}
	return set
}
