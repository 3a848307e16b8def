package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"resumescreener/internal/errors"
	"resumescreener/internal/pdftext"
	"resumescreener/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

const (
	MsgEmptyJobDescription = "Empty job description"
	MsgEmptyResumeText     = "Empty resume text"
	MsgEmptyExplanation    = "Empty explanation text"
)

// RequirementsAnalyzer extracts structured hiring requirements from a job description.
type RequirementsAnalyzer struct {
	provider *GeminiProvider
}

// NewRequirementsAnalyzer wraps a provider built for OperationRequirements.
func NewRequirementsAnalyzer(provider *GeminiProvider) *RequirementsAnalyzer {
	return &RequirementsAnalyzer{provider: provider}
}

// ExtractRequirements returns the requirements stated in description.
// Blank input is rejected without calling the model.
func (a *RequirementsAnalyzer) ExtractRequirements(ctx context.Context, description string) (types.JobRequirements, error) {
	if strings.TrimSpace(description) == "" {
		return types.JobRequirements{}, errors.NewValidationError(errors.ErrCodeEmptyInput, MsgEmptyJobDescription, nil)
	}

	prompt := buildRequirementsPrompt(a.provider.prompts.User, description)
	requirements, _, err := generate(ctx, a.provider, prompt, requirementsSchema(), MapRequirements,
		attribute.Int("input.job_length", len(description)))
	if err != nil {
		return types.JobRequirements{}, responseError(err, "")
	}
	return requirements, nil
}

// ResumeParser extracts structured candidate records from resume text or PDFs.
type ResumeParser struct {
	provider *GeminiProvider
	extract  func([]byte) (string, error)
}

// NewResumeParser wraps a provider built for OperationResume.
func NewResumeParser(provider *GeminiProvider) *ResumeParser {
	return &ResumeParser{provider: provider, extract: pdftext.Extract}
}

// ExtractResume parses resume text. Every failure is reported as
// "Failed to parse resume text: ...".
func (p *ResumeParser) ExtractResume(ctx context.Context, text string) (types.ResumeRecord, error) {
	if strings.TrimSpace(text) == "" {
		return types.ResumeRecord{}, errors.NewValidationError(errors.ErrCodeEmptyInput, MsgEmptyResumeText, nil)
	}

	record, err := p.parse(ctx, text)
	if err != nil {
		return types.ResumeRecord{}, wrapMessage(err, "Failed to parse resume text: ")
	}
	return record, nil
}

// ExtractResumeDocument extracts the text of a PDF and parses it. PDF
// failures keep the extractor's message; malformed model output reports
// "Failed to parse Gemini response as JSON: ..." and other failures
// "Failed to parse resume: ...".
func (p *ResumeParser) ExtractResumeDocument(ctx context.Context, document []byte) (types.ResumeRecord, error) {
	text, err := p.extract(document)
	if err != nil {
		return types.ResumeRecord{}, err
	}

	record, err := p.parse(ctx, text)
	if err != nil {
		return types.ResumeRecord{}, responseError(err, "Failed to parse resume: ")
	}
	return record, nil
}

func (p *ResumeParser) parse(ctx context.Context, text string) (types.ResumeRecord, error) {
	prompt := buildResumePrompt(p.provider.prompts.User, text)
	record, _, err := generate(ctx, p.provider, prompt, resumeSchema(), func(response string) (types.ResumeRecord, error) {
		return MapResume(response, text)
	}, attribute.Int("input.resume_length", len(text)))
	return record, err
}

// Explainer writes short natural-language explanations of a ranking.
type Explainer struct {
	provider *GeminiProvider
}

// NewExplainer wraps a provider built for OperationExplain.
func NewExplainer(provider *GeminiProvider) *Explainer {
	return &Explainer{provider: provider}
}

// GenerateExplanation returns the model's explanation for match at rank,
// trimmed. A blank response is an error so callers can fall back.
func (e *Explainer) GenerateExplanation(ctx context.Context, match types.MatchResult, rank int) (string, error) {
	prompt := buildExplanationPrompt(e.provider.prompts.User, match, rank)
	text, _, err := generate(ctx, e.provider, prompt, nil, plainText,
		attribute.Int("candidate.rank", rank),
		attribute.Float64("candidate.overall_score", match.OverallScore))
	if err != nil {
		return "", err
	}
	return text, nil
}

func plainText(response string) (string, error) {
	text := strings.TrimSpace(response)
	if text == "" {
		return "", errors.NewAIError(errors.ErrCodeAIResponseParse, MsgEmptyExplanation, nil)
	}
	return text, nil
}

// responseError turns a generate failure into an AppError. Malformed JSON is
// always reported as such; anything else gets prefix.
func responseError(err error, prefix string) error {
	var syntaxErr *SyntaxError
	if stderrors.As(err, &syntaxErr) {
		return errors.NewAIError(errors.ErrCodeAIResponseParse,
			fmt.Sprintf("Failed to parse Gemini response as JSON: %s", syntaxErr.Detail), err)
	}
	return wrapMessage(err, prefix)
}

// wrapMessage prefixes the user-facing message of err, keeping its code.
func wrapMessage(err error, prefix string) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		if prefix == "" {
			return appErr
		}
		return &errors.AppError{
			Type:    appErr.Type,
			Code:    appErr.Code,
			Message: prefix + appErr.Message,
			Cause:   err,
			Context: appErr.Context,
		}
	}
	return errors.NewAIError(errors.ErrCodeAIResponseParse, prefix+err.Error(), err)
}
