package types

import "time"

// SchemaVersion is stamped on every serialized record.
const SchemaVersion = "1.0"

// ExperienceEntry is one position on a resume.
type ExperienceEntry struct {
	Title          string `json:"title" yaml:"title"`
	Company        string `json:"company" yaml:"company"`
	DurationMonths int    `json:"duration_months" yaml:"duration_months"` // 0 when unknown
	Description    string `json:"description" yaml:"description"`
}

// EducationEntry is one degree on a resume.
type EducationEntry struct {
	Degree      string  `json:"degree" yaml:"degree"`
	Institution string  `json:"institution" yaml:"institution"`
	Year        *int    `json:"year,omitempty" yaml:"year,omitempty"`
	Field       *string `json:"field,omitempty" yaml:"field,omitempty"`
}

// ResumeRecord is the structured form of one candidate's resume.
type ResumeRecord struct {
	Name          string            `json:"name" yaml:"name"`
	Email         *string           `json:"email,omitempty" yaml:"email,omitempty"`
	Phone         *string           `json:"phone,omitempty" yaml:"phone,omitempty"`
	Skills        []string          `json:"skills" yaml:"skills"`
	Experience    []ExperienceEntry `json:"experience" yaml:"experience"`
	Education     []EducationEntry  `json:"education" yaml:"education"`
	RawText       string            `json:"raw_text" yaml:"-"`
	SchemaVersion string            `json:"schema_version" yaml:"schema_version"`
}

// JobRequirements is the structured form of a job description.
type JobRequirements struct {
	Title                 string   `json:"title" yaml:"title"`
	RequiredSkills        []string `json:"required_skills" yaml:"required_skills"`
	PreferredSkills       []string `json:"preferred_skills" yaml:"preferred_skills"`
	MinExperienceYears    int      `json:"min_experience_years" yaml:"min_experience_years"`
	EducationRequirements []string `json:"education_requirements" yaml:"education_requirements"`
	Responsibilities      []string `json:"responsibilities" yaml:"responsibilities"`
	SchemaVersion         string   `json:"schema_version" yaml:"schema_version"`
}

// MatchResult is the score breakdown of one resume against one set of requirements.
type MatchResult struct {
	Resume          ResumeRecord `json:"resume"`
	OverallScore    float64      `json:"overall_score"`
	SkillsScore     float64      `json:"skills_score"`
	ExperienceScore float64      `json:"experience_score"`
	EducationScore  float64      `json:"education_score"`
	MatchedSkills   []string     `json:"matched_skills"`
	SkillGaps       []string     `json:"skill_gaps"`
	Strengths       []string     `json:"strengths"`
	SchemaVersion   string       `json:"schema_version"`
}

// CandidateResult is the ranked, externally visible projection of a MatchResult.
type CandidateResult struct {
	Rank            int      `json:"rank" yaml:"rank"`
	Name            string   `json:"name" yaml:"name"`
	OverallScore    float64  `json:"overall_score" yaml:"overall_score"`
	SkillsScore     float64  `json:"skills_score" yaml:"skills_score"`
	ExperienceScore float64  `json:"experience_score" yaml:"experience_score"`
	EducationScore  float64  `json:"education_score" yaml:"education_score"`
	MatchedSkills   []string `json:"matched_skills" yaml:"matched_skills"`
	SkillGaps       []string `json:"skill_gaps" yaml:"skill_gaps"`
	Strengths       []string `json:"strengths" yaml:"strengths"`
	Explanation     string   `json:"explanation" yaml:"explanation"`
	SchemaVersion   string   `json:"schema_version" yaml:"schema_version"`
}

// Stage names reported in ProcessingStatus.CurrentAgent.
const (
	StageAnalyzer = "Analyzer"
	StageParser   = "Parser"
	StageMatcher  = "Matcher"
	StageRanker   = "Ranker"
	StageComplete = "Complete"
)

// ProcessingStatus is a progress snapshot of one screening run. A new value
// is produced at every transition; snapshots are never mutated.
type ProcessingStatus struct {
	CurrentAgent   string    `json:"current_agent"`
	ProcessedCount int       `json:"processed_count"`
	TotalCount     int       `json:"total_count"`
	IsComplete     bool      `json:"is_complete"`
	StartTime      time.Time `json:"start_time"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	ErrorMessage   *string   `json:"error_message,omitempty"`
	SchemaVersion  string    `json:"schema_version"`
}

// ExportMetadata accompanies every exported report.
type ExportMetadata struct {
	Timestamp       string   `json:"timestamp" yaml:"timestamp"`
	JobSummary      string   `json:"job_summary" yaml:"job_summary"`
	TotalCandidates int      `json:"total_candidates" yaml:"total_candidates"`
	TopCandidate    *string  `json:"top_candidate" yaml:"top_candidate"`
	TopScore        *float64 `json:"top_score" yaml:"top_score"`
}

// ScreeningReport is what the screen command and the HTTP API return.
type ScreeningReport struct {
	RunID         string            `json:"run_id" yaml:"run_id"`
	Metadata      ExportMetadata    `json:"metadata" yaml:"metadata"`
	Results       []CandidateResult `json:"results" yaml:"results"`
	Error         *string           `json:"error,omitempty" yaml:"error,omitempty"`
	SchemaVersion string            `json:"schema_version" yaml:"schema_version"`
}

// ScreenTextRequest is the JSON body of POST /screen/text.
type ScreenTextRequest struct {
	JobDescription       string   `json:"jobDescription"`
	Resumes              []string `json:"resumes"`
	GenerateExplanations *bool    `json:"generateExplanations,omitempty"`
}

// AnalyzeJobInput is the JSON body of POST /analyze.
type AnalyzeJobInput struct {
	JobDescription string `json:"jobDescription"`
}
