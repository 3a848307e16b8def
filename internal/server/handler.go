package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"resumescreener/internal/errors"
	"resumescreener/internal/export"
	"resumescreener/internal/screening"
	"resumescreener/internal/types"
	"resumescreener/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatPDF  = "pdf"

	multipartMemory = 32 << 20

	// headerScreeningError carries report.Error on CSV and PDF responses,
	// which have no field for it.
	headerScreeningError = "X-Screening-Error"
)

var responseFormats = []string{formatJSON, formatCSV, formatPDF}

// screenDocumentsHandler screens uploaded PDF resumes. The multipart form
// carries a jobDescription field and one or more resumes files.
func (s *Server) screenDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.observability.Tracer("screener.api").Start(r.Context(), "api.screen")
	defer span.End()

	format, err := responseFormat(r)
	if err != nil {
		s.writeRequestError(w, span, err)
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.writeBodyError(w, span, err)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.Logger.LogError(err, "Failed to remove multipart temp files")
		}
	}()

	documents, err := readUploads(r.MultipartForm.File["resumes"])
	if err != nil {
		s.writeBodyError(w, span, err)
		return
	}
	if err := validation.ValidateDocuments(documents, s.Screening.MaxFiles); err != nil {
		s.writeRequestError(w, span, err)
		return
	}

	jobDescription := r.FormValue("jobDescription")
	if err := s.validateJobDescription(jobDescription); err != nil {
		s.writeRequestError(w, span, err)
		return
	}

	explanations, err := s.explanationsSetting(r.FormValue("generateExplanations"))
	if err != nil {
		s.writeRequestError(w, span, err)
		return
	}

	s.runScreening(ctx, w, span, format, screening.Request{
		Documents:            documents,
		JobDescription:       jobDescription,
		GenerateExplanations: explanations,
	})
}

// screenTextHandler screens resumes submitted as plain text.
func (s *Server) screenTextHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.observability.Tracer("screener.api").Start(r.Context(), "api.screen_text")
	defer span.End()

	format, err := responseFormat(r)
	if err != nil {
		s.writeRequestError(w, span, err)
		return
	}

	var req ScreenTextRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeBodyError(w, span, err)
		return
	}

	if err := validation.ValidateFileCount(len(req.Resumes), s.Screening.MaxFiles); err != nil {
		s.writeRequestError(w, span, err)
		return
	}
	if err := s.validateJobDescription(req.JobDescription); err != nil {
		s.writeRequestError(w, span, err)
		return
	}

	explanations := s.Screening.GenerateExplanations
	if req.GenerateExplanations != nil {
		explanations = *req.GenerateExplanations
	}

	s.runScreening(ctx, w, span, format, screening.Request{
		Texts:                req.Resumes,
		JobDescription:       req.JobDescription,
		GenerateExplanations: explanations,
	})
}

// analyzeHandler extracts requirements from a job description.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.observability.Tracer("screener.api").Start(r.Context(), "api.analyze")
	defer span.End()

	var req AnalyzeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeBodyError(w, span, err)
		return
	}
	if err := s.validateJobDescription(req.JobDescription); err != nil {
		s.writeRequestError(w, span, err)
		return
	}

	span.SetAttributes(attribute.Int("request.job_length", len(req.JobDescription)))

	requirements, err := s.screener.Analyze(ctx, req.JobDescription)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errors.UserMessage(err))
		s.Logger.LogError(err, "Failed to analyze job description")
		writeAppError(w, "Failed to analyze job description", err, statusForError(err))
		return
	}

	span.SetAttributes(attribute.Int("requirements.required_skills", len(requirements.RequiredSkills)))
	writeJSON(w, http.StatusOK, requirements)
}

func (s *Server) runScreening(ctx context.Context, w http.ResponseWriter, span trace.Span, format string, req screening.Request) {
	span.SetAttributes(
		attribute.Int("request.job_length", len(req.JobDescription)),
		attribute.Int("request.candidates", max(len(req.Documents), len(req.Texts))),
		attribute.String("response.format", format),
	)

	report, err := s.screener.Screen(ctx, req)
	span.SetAttributes(
		attribute.String("run.id", report.RunID),
		attribute.Int("run.ranked", len(report.Results)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var runErr *screening.RunError
		if stderrors.As(err, &runErr) && runErr.Fatal {
			writeJSON(w, http.StatusUnprocessableEntity, report)
			return
		}
		s.Logger.LogError(err, "Screening request failed")
		var appErr *errors.AppError
		if !stderrors.As(err, &appErr) {
			err = errors.NewInternalError(errors.ErrCodeScreeningFailed, err.Error(), err)
		}
		writeAppError(w, "Screening failed", err, statusForError(err))
		return
	}

	s.writeReport(w, format, report, req.JobDescription)
}

// writeReport renders a successful report in the requested format. CSV and
// PDF bodies carry the full job description, truncated by the exporters, and
// partial failures travel in the X-Screening-Error header.
func (s *Server) writeReport(w http.ResponseWriter, format string, report types.ScreeningReport, jobDescription string) {
	var (
		body        []byte
		err         error
		contentType string
	)
	switch format {
	case formatCSV:
		body, err = export.ToCSV(report.Results, jobDescription, s.now())
		contentType = "text/csv; charset=utf-8"
	case formatPDF:
		body, err = export.ToPDF(report.Results, jobDescription, s.now())
		contentType = "application/pdf"
	default:
		writeJSON(w, http.StatusOK, report)
		return
	}

	if err != nil {
		s.Logger.LogError(err, "Failed to export screening report", "format", format, "run_id", report.RunID)
		writeAppError(w, "Failed to export report", err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "screening-"+report.RunID+"."+format))
	if report.Error != nil {
		w.Header().Set(headerScreeningError, strings.Join(strings.Fields(*report.Error), " "))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.Logger.LogError(err, "Failed to write report body", "run_id", report.RunID)
	}
}

func (s *Server) validateJobDescription(jobDescription string) error {
	return validation.ValidateJobDescription(jobDescription,
		s.Screening.MinJobDescriptionLength, s.Screening.MaxJobDescriptionLength)
}

// explanationsSetting parses the generateExplanations form value, falling
// back to the configured default when it is absent.
func (s *Server) explanationsSetting(value string) (bool, error) {
	if value == "" {
		return s.Screening.GenerateExplanations, nil
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("generateExplanations must be a boolean, got '%s'", value), err)
	}
	return enabled, nil
}

func responseFormat(r *http.Request) (string, error) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		return formatJSON, nil
	}
	if err := validation.ValidateOutputFormat(format, responseFormats); err != nil {
		return "", err
	}
	return format, nil
}

func readUploads(headers []*multipart.FileHeader) ([][]byte, error) {
	documents := make([][]byte, 0, len(headers))
	for _, header := range headers {
		data, err := readUpload(header)
		if err != nil {
			return nil, err
		}
		documents = append(documents, data)
	}
	return documents, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", header.Filename, err)
	}
	return data, nil
}

// writeRequestError answers a rejected request with 400 and the validation message.
func (s *Server) writeRequestError(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", "validation"))
	writeAppError(w, "Invalid request", err, http.StatusBadRequest)
}

// writeBodyError answers a body that could not be read or decoded.
func (s *Server) writeBodyError(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", "validation"))

	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		writeErrorResponse(w, "Request body too large",
			fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit),
			http.StatusRequestEntityTooLarge)
		return
	}
	writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
}

// statusForError maps an application error onto an HTTP status code.
func statusForError(err error) int {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case errors.ErrCodeAIRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeAITimeout:
		return http.StatusGatewayTimeout
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeAI, errors.ErrorTypeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
