package formatters

import (
	"fmt"
	"sort"
	"strings"

	"resumescreener/internal/serialization"
	"resumescreener/internal/types"

	"gopkg.in/yaml.v3"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("yaml", "any", &YAMLFormatter{})
	registry.RegisterFormatter("text", "ScreeningReport", &ReportTextFormatter{})
	registry.RegisterFormatter("markdown", "ScreeningReport", &ReportMarkdownFormatter{})
	registry.RegisterFormatter("text", "JobRequirements", &RequirementsTextFormatter{})
	registry.RegisterFormatter("markdown", "JobRequirements", &RequirementsMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ScreeningReport, *types.ScreeningReport:
		return "ScreeningReport"
	case types.JobRequirements, *types.JobRequirements:
		return "JobRequirements"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	return serialization.Serialize(data)
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// YAMLFormatter handles YAML formatting for any data type
type YAMLFormatter struct{}

func (yf *YAMLFormatter) Format(data any) (string, error) {
	var sb strings.Builder
	encoder := yaml.NewEncoder(&sb)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return "", err
	}
	if err := encoder.Close(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (yf *YAMLFormatter) SupportedType() string {
	return "any"
}

func asReport(data any) (types.ScreeningReport, error) {
	switch r := data.(type) {
	case types.ScreeningReport:
		return r, nil
	case *types.ScreeningReport:
		if r != nil {
			return *r, nil
		}
	}
	return types.ScreeningReport{}, fmt.Errorf("expected ScreeningReport, got %T", data)
}

func asRequirements(data any) (types.JobRequirements, error) {
	switch r := data.(type) {
	case types.JobRequirements:
		return r, nil
	case *types.JobRequirements:
		if r != nil {
			return *r, nil
		}
	}
	return types.JobRequirements{}, fmt.Errorf("expected JobRequirements, got %T", data)
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

// ReportTextFormatter handles text formatting for screening reports
type ReportTextFormatter struct{}

func (rtf *ReportTextFormatter) Format(data any) (string, error) {
	report, err := asReport(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== RESUME SCREENING RESULTS ===\n")
	output.WriteString(fmt.Sprintf("Run ID: %s\n", report.RunID))
	output.WriteString(fmt.Sprintf("Generated: %s\n", report.Metadata.Timestamp))
	output.WriteString(fmt.Sprintf("Total Candidates: %d\n", report.Metadata.TotalCandidates))
	if report.Metadata.TopCandidate != nil && report.Metadata.TopScore != nil {
		output.WriteString(fmt.Sprintf("Top Candidate: %s (%.1f%%)\n", *report.Metadata.TopCandidate, *report.Metadata.TopScore))
	}
	output.WriteString("\n")

	if report.Metadata.JobSummary != "" {
		output.WriteString("=== JOB SUMMARY ===\n")
		output.WriteString(report.Metadata.JobSummary)
		output.WriteString("\n\n")
	}

	for _, c := range report.Results {
		output.WriteString(fmt.Sprintf("=== #%d %s ===\n", c.Rank, c.Name))
		output.WriteString(fmt.Sprintf("Overall: %.1f%%  Skills: %.1f%%  Experience: %.1f%%  Education: %.1f%%\n",
			c.OverallScore, c.SkillsScore, c.ExperienceScore, c.EducationScore))
		output.WriteString(fmt.Sprintf("Matched Skills: %s\n", listOrNone(c.MatchedSkills)))
		output.WriteString(fmt.Sprintf("Skill Gaps: %s\n", listOrNone(c.SkillGaps)))
		if len(c.Strengths) > 0 {
			output.WriteString("Strengths:\n")
			for _, strength := range c.Strengths {
				output.WriteString(fmt.Sprintf("- %s\n", strength))
			}
		}
		output.WriteString("\n")
		output.WriteString(c.Explanation)
		output.WriteString("\n\n")
	}

	if report.Error != nil {
		output.WriteString("=== ERRORS ===\n")
		output.WriteString(*report.Error)
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (rtf *ReportTextFormatter) SupportedType() string {
	return "ScreeningReport"
}

// ReportMarkdownFormatter handles markdown formatting for screening reports
type ReportMarkdownFormatter struct{}

func (rmf *ReportMarkdownFormatter) Format(data any) (string, error) {
	report, err := asReport(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# Resume Screening Results\n\n")
	output.WriteString(fmt.Sprintf("**Run ID:** %s  \n", report.RunID))
	output.WriteString(fmt.Sprintf("**Generated:** %s  \n", report.Metadata.Timestamp))
	output.WriteString(fmt.Sprintf("**Total Candidates:** %d\n\n", report.Metadata.TotalCandidates))

	if report.Metadata.JobSummary != "" {
		output.WriteString("## Job Summary\n\n")
		output.WriteString(report.Metadata.JobSummary)
		output.WriteString("\n\n")
	}

	if len(report.Results) > 0 {
		output.WriteString("## Ranking\n\n")
		output.WriteString("| Rank | Name | Overall | Skills | Experience | Education |\n")
		output.WriteString("|---:|---|---:|---:|---:|---:|\n")
		for _, c := range report.Results {
			output.WriteString(fmt.Sprintf("| %d | %s | %.1f%% | %.1f%% | %.1f%% | %.1f%% |\n",
				c.Rank, escapeCell(c.Name), c.OverallScore, c.SkillsScore, c.ExperienceScore, c.EducationScore))
		}
		output.WriteString("\n## Detailed Analysis\n\n")
	}

	for _, c := range report.Results {
		output.WriteString(fmt.Sprintf("### #%d - %s (%.1f%%)\n\n", c.Rank, c.Name, c.OverallScore))
		output.WriteString(c.Explanation)
		output.WriteString("\n\n")
		output.WriteString(fmt.Sprintf("**Matched Skills:** %s  \n", listOrNone(c.MatchedSkills)))
		output.WriteString(fmt.Sprintf("**Skill Gaps:** %s\n\n", listOrNone(c.SkillGaps)))
		if len(c.Strengths) > 0 {
			output.WriteString("**Strengths:**\n")
			for _, strength := range c.Strengths {
				output.WriteString(fmt.Sprintf("- %s\n", strength))
			}
			output.WriteString("\n")
		}
	}

	if report.Error != nil {
		output.WriteString("## Errors\n\n")
		for _, msg := range strings.Split(*report.Error, "; ") {
			output.WriteString(fmt.Sprintf("- %s\n", msg))
		}
	}

	return output.String(), nil
}

func (rmf *ReportMarkdownFormatter) SupportedType() string {
	return "ScreeningReport"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// RequirementsTextFormatter handles text formatting for extracted job requirements
type RequirementsTextFormatter struct{}

func (rtf *RequirementsTextFormatter) Format(data any) (string, error) {
	req, err := asRequirements(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== JOB REQUIREMENTS ===\n")
	output.WriteString(fmt.Sprintf("Title: %s\n", req.Title))
	output.WriteString(fmt.Sprintf("Minimum Experience: %d years\n\n", req.MinExperienceYears))

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		output.WriteString(title + ":\n")
		for _, item := range items {
			output.WriteString(fmt.Sprintf("- %s\n", item))
		}
		output.WriteString("\n")
	}
	writeList("Required Skills", req.RequiredSkills)
	writeList("Preferred Skills", req.PreferredSkills)
	writeList("Education", req.EducationRequirements)
	writeList("Responsibilities", req.Responsibilities)

	return output.String(), nil
}

func (rtf *RequirementsTextFormatter) SupportedType() string {
	return "JobRequirements"
}

// RequirementsMarkdownFormatter handles markdown formatting for extracted job requirements
type RequirementsMarkdownFormatter struct{}

func (rmf *RequirementsMarkdownFormatter) Format(data any) (string, error) {
	req, err := asRequirements(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("# %s\n\n", req.Title))
	output.WriteString(fmt.Sprintf("**Minimum Experience:** %d years\n\n", req.MinExperienceYears))

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		output.WriteString(fmt.Sprintf("## %s\n\n", title))
		for _, item := range items {
			output.WriteString(fmt.Sprintf("- %s\n", item))
		}
		output.WriteString("\n")
	}
	writeList("Required Skills", req.RequiredSkills)
	writeList("Preferred Skills", req.PreferredSkills)
	writeList("Education", req.EducationRequirements)
	writeList("Responsibilities", req.Responsibilities)

	return output.String(), nil
}

func (rmf *RequirementsMarkdownFormatter) SupportedType() string {
	return "JobRequirements"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
