package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumescreener/internal/types"

	"github.com/tidwall/gjson"
)

// StripCodeFences removes a markdown code fence wrapped around a model
// response: when the trimmed text starts with ``` the first and last lines
// are dropped.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return ""
	}
	return strings.Join(lines[1:len(lines)-1], "\n")
}

// SyntaxError reports a model response that is not valid JSON.
type SyntaxError struct {
	Detail string
}

func (e *SyntaxError) Error() string { return e.Detail }

// parseObject cleans a model response and returns it as a JSON object.
func parseObject(text string) (gjson.Result, error) {
	cleaned := StripCodeFences(text)
	if !gjson.Valid(cleaned) {
		var raw json.RawMessage
		if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
			return gjson.Result{}, &SyntaxError{Detail: err.Error()}
		}
		return gjson.Result{}, &SyntaxError{Detail: "invalid JSON"}
	}
	doc := gjson.Parse(cleaned)
	if !doc.IsObject() {
		return gjson.Result{}, fmt.Errorf("expected a JSON object, got %s", doc.Type)
	}
	return doc, nil
}

// MapRequirements maps a model response onto JobRequirements. Absent or
// null fields take their defaults: title "Unknown Position", empty lists and
// zero years.
func MapRequirements(text string) (types.JobRequirements, error) {
	doc, err := parseObject(text)
	if err != nil {
		return types.JobRequirements{}, err
	}

	return types.JobRequirements{
		Title:                 stringOr(doc.Get("title"), "Unknown Position"),
		RequiredSkills:        stringList(doc.Get("required_skills")),
		PreferredSkills:       stringList(doc.Get("preferred_skills")),
		MinExperienceYears:    int(doc.Get("min_experience_years").Int()),
		EducationRequirements: stringList(doc.Get("education_requirements")),
		Responsibilities:      stringList(doc.Get("responsibilities")),
		SchemaVersion:         types.SchemaVersion,
	}, nil
}

// MapResume maps a model response onto a ResumeRecord carrying rawText.
// Name defaults to "Unknown" and null durations count as zero months.
func MapResume(text, rawText string) (types.ResumeRecord, error) {
	doc, err := parseObject(text)
	if err != nil {
		return types.ResumeRecord{}, err
	}

	experience := []types.ExperienceEntry{}
	for _, entry := range doc.Get("experience").Array() {
		experience = append(experience, types.ExperienceEntry{
			Title:          entry.Get("title").String(),
			Company:        entry.Get("company").String(),
			DurationMonths: int(entry.Get("duration_months").Int()),
			Description:    entry.Get("description").String(),
		})
	}

	education := []types.EducationEntry{}
	for _, entry := range doc.Get("education").Array() {
		edu := types.EducationEntry{
			Degree:      entry.Get("degree").String(),
			Institution: entry.Get("institution").String(),
			Field:       optionalString(entry.Get("field")),
		}
		if year := entry.Get("year"); present(year) {
			y := int(year.Int())
			edu.Year = &y
		}
		education = append(education, edu)
	}

	return types.ResumeRecord{
		Name:          nonBlank(doc.Get("name"), "Unknown"),
		Email:         optionalString(doc.Get("email")),
		Phone:         optionalString(doc.Get("phone")),
		Skills:        stringList(doc.Get("skills")),
		Experience:    experience,
		Education:     education,
		RawText:       rawText,
		SchemaVersion: types.SchemaVersion,
	}, nil
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

func stringOr(r gjson.Result, fallback string) string {
	if !present(r) {
		return fallback
	}
	return r.String()
}

// nonBlank is stringOr for fields that must carry text: blank values fall
// back too.
func nonBlank(r gjson.Result, fallback string) string {
	if s := strings.TrimSpace(stringOr(r, "")); s != "" {
		return s
	}
	return fallback
}

func optionalString(r gjson.Result) *string {
	if !present(r) {
		return nil
	}
	s := r.String()
	return &s
}

func stringList(r gjson.Result) []string {
	out := []string{}
	if !present(r) {
		return out
	}
	for _, item := range r.Array() {
		if present(item) {
			out = append(out, item.String())
		}
	}
	return out
}
