package ai

import (
	"fmt"
	"strings"

	"resumescreener/internal/config"
	"resumescreener/internal/types"
)

// Operation names, used for span names, circuit breaker names and metrics.
const (
	OperationRequirements = "extract_requirements"
	OperationResume       = "extract_resume"
	OperationExplain      = "explain_ranking"
)

// Prompts holds the system instruction and the user prompt template of one
// operation.
type Prompts struct {
	System string
	User   string
}

// DefaultPrompts are used when configuration supplies no override.
//
// User templates are fmt format strings:
//   - requirements: %[1]s job description
//   - resume: %[1]s resume text
//   - explain: %[1]d rank, %[2]s name, %[3]s..%[6]s overall/skills/experience/education
//     scores, %[7]s matched skills, %[8]s missing skills, %[9]s strengths
var DefaultPrompts = map[string]Prompts{
	OperationRequirements: {
		System: `You are a recruitment analyst. You read job descriptions and extract the hiring requirements they state.
Only report requirements that appear in the text. Do not infer skills that are not mentioned.`,
		User: `Extract structured requirements from this job description. Return ONLY valid JSON with this exact structure:
{
    "title": "Job Title",
    "required_skills": ["skill1", "skill2"],
    "preferred_skills": ["skill3", "skill4"],
    "min_experience_years": 3,
    "education_requirements": ["Bachelor's degree", "Master's preferred"],
    "responsibilities": ["responsibility1", "responsibility2"]
}

Job Description:
%[1]s

Return ONLY the JSON, no other text.`,
	},
	OperationResume: {
		System: `You are a resume parser. You turn resume text into structured records.
Copy names, employers and skills exactly as written. Use null for anything the resume does not state.`,
		User: `Extract structured information from this resume text. Return ONLY valid JSON with this exact structure:
{
    "name": "Full Name",
    "email": "email@example.com or null",
    "phone": "phone number or null",
    "skills": ["skill1", "skill2"],
    "experience": [
        {
            "title": "Job Title",
            "company": "Company Name",
            "duration_months": 24,
            "description": "Brief description"
        }
    ],
    "education": [
        {
            "degree": "Degree Name",
            "institution": "University Name",
            "year": 2020,
            "field": "Field of Study or null"
        }
    ]
}

Resume text:
%[1]s

Return ONLY the JSON, no other text.`,
	},
	OperationExplain: {
		System: `You are a hiring assistant writing short, factual notes for recruiters about why a candidate was ranked where they were.`,
		User: `Generate a brief 2-3 sentence explanation for why this candidate is ranked #%[1]d.

Candidate: %[2]s
Overall Score: %[3]s%%
Skills Score: %[4]s%%
Experience Score: %[5]s%%
Education Score: %[6]s%%
Matched Skills: %[7]s
Missing Skills: %[8]s
Strengths: %[9]s

Write a professional, concise explanation. Return ONLY the explanation text.`,
	},
}

// resolvePrompts picks each prompt from configuration (already loaded from
// files at config time) and falls back to the built-in default.
func resolvePrompts(operation string, cfg config.PromptConfig) Prompts {
	defaults := DefaultPrompts[operation]
	return Prompts{
		System: resolvePrompt(cfg.System, defaults.System),
		User:   resolvePrompt(cfg.User, defaults.User),
	}
}

func resolvePrompt(fromConfig, fromDefault string) string {
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}

func buildRequirementsPrompt(template, description string) string {
	return fmt.Sprintf(template, description)
}

func buildResumePrompt(template, text string) string {
	return fmt.Sprintf(template, text)
}

func buildExplanationPrompt(template string, match types.MatchResult, rank int) string {
	score := func(v float64) string { return fmt.Sprintf("%.1f", v) }
	return fmt.Sprintf(template,
		rank,
		match.Resume.Name,
		score(match.OverallScore),
		score(match.SkillsScore),
		score(match.ExperienceScore),
		score(match.EducationScore),
		joinOrNone(match.MatchedSkills),
		joinOrNone(match.SkillGaps),
		joinOrNone(match.Strengths),
	)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}
