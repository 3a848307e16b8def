package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"resumescreener/internal/ai"
	"resumescreener/internal/config"
	"resumescreener/internal/errors"
	"resumescreener/internal/observability"
	"resumescreener/internal/screening"
	"resumescreener/internal/types"
	"resumescreener/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLoggerWithWriter(io.Discard, slog.LevelError)

type fakeScreener struct {
	mu           sync.Mutex
	report       types.ScreeningReport
	err          error
	requests     []screening.Request
	requirements types.JobRequirements
	analyzeErr   error
	active       map[string]types.ProcessingStatus
}

func (f *fakeScreener) Screen(_ context.Context, req screening.Request) (types.ScreeningReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.report, f.err
}

func (f *fakeScreener) Analyze(_ context.Context, _ string) (types.JobRequirements, error) {
	return f.requirements, f.analyzeErr
}

func (f *fakeScreener) ActiveRuns() map[string]types.ProcessingStatus {
	if f.active == nil {
		return map[string]types.ProcessingStatus{}
	}
	return f.active
}

func (f *fakeScreener) lastRequest(t *testing.T) screening.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "screener was not called")
	return f.requests[len(f.requests)-1]
}

type fakeAIStatus struct {
	models map[string]*ai.ModelInfo
}

func (f *fakeAIStatus) HealthCheck(context.Context) map[string]*ai.ModelInfo {
	return f.models
}

func (f *fakeAIStatus) CircuitBreakerStats() map[string]any {
	return map[string]any{"extract_requirements": map[string]any{"state": "closed"}}
}

func sampleReport() types.ScreeningReport {
	top := "Alice"
	score := 87.5
	return types.ScreeningReport{
		RunID: "run-42",
		Metadata: types.ExportMetadata{
			Timestamp:       "2025-03-14T09:30:00Z",
			JobSummary:      "Backend engineer",
			TotalCandidates: 1,
			TopCandidate:    &top,
			TopScore:        &score,
		},
		Results: []types.CandidateResult{{
			Rank:          1,
			Name:          "Alice",
			OverallScore:  87.5,
			SkillsScore:   100,
			MatchedSkills: []string{"Go"},
			SkillGaps:     []string{},
			Strengths:     []string{"Strong skills match"},
			Explanation:   "Alice matches every required skill.",
			SchemaVersion: types.SchemaVersion,
		}},
		SchemaVersion: types.SchemaVersion,
	}
}

func testServerConfig() ServerConfig {
	return ServerConfig{
		Host:    "127.0.0.1",
		Port:    "0",
		Version: "test",
		Screening: config.ScreeningConfig{
			MaxFiles:                3,
			MinJobDescriptionLength: 1,
			MaxJobDescriptionLength: 1000,
			GenerateExplanations:    true,
		},
	}
}

func newTestServer(t *testing.T, cfg ServerConfig, screener Screener, status AIStatus) *Server {
	t.Helper()
	om, err := observability.NewManager(observability.ObservabilityConfig{Enabled: false}, testLogger)
	require.NoError(t, err)

	s := NewServer(cfg, screener, status, om, testLogger)
	s.now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() {
		if s.RateLimiter != nil {
			s.RateLimiter.Close()
		}
	})
	return s
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func multipartRequest(t *testing.T, path, jobDescription string, files map[string][]byte, extra map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if jobDescription != "" {
		require.NoError(t, mw.WriteField("jobDescription", jobDescription))
	}
	for key, value := range extra {
		require.NoError(t, mw.WriteField(key, value))
	}
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf"} {
		data, ok := files[name]
		if !ok {
			continue
		}
		part, err := mw.CreateFormFile("resumes", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestScreenText(t *testing.T) {
	screener := &fakeScreener{report: sampleReport()}
	h := newTestServer(t, testServerConfig(), screener, nil).Handler()

	rec := postJSON(t, h, "/screen/text", ScreenTextRequest{
		JobDescription: "Backend engineer with Go",
		Resumes:        []string{"Alice resume", "Bob resume"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report types.ScreeningReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "run-42", report.RunID)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "Alice", report.Results[0].Name)

	req := screener.lastRequest(t)
	assert.Nil(t, req.Documents)
	assert.Equal(t, []string{"Alice resume", "Bob resume"}, req.Texts)
	assert.Equal(t, "Backend engineer with Go", req.JobDescription)
	assert.True(t, req.GenerateExplanations, "explanations default to the configured value")
}

func TestScreenTextExplanationsOverride(t *testing.T) {
	screener := &fakeScreener{report: sampleReport()}
	h := newTestServer(t, testServerConfig(), screener, nil).Handler()

	off := false
	rec := postJSON(t, h, "/screen/text", ScreenTextRequest{
		JobDescription:       "Backend engineer",
		Resumes:              []string{"resume"},
		GenerateExplanations: &off,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, screener.lastRequest(t).GenerateExplanations)
}

func TestScreenTextValidation(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    ScreenTextRequest
		code    string
		message string
	}{
		{
			name:    "no resumes",
			path:    "/screen/text",
			body:    ScreenTextRequest{JobDescription: "Backend engineer"},
			code:    errors.ErrCodeNoFiles,
			message: validation.MsgNoFiles,
		},
		{
			name:    "too many resumes",
			path:    "/screen/text",
			body:    ScreenTextRequest{JobDescription: "Backend engineer", Resumes: []string{"a", "b", "c", "d"}},
			code:    errors.ErrCodeTooManyFiles,
			message: "Too many files. Maximum allowed is 3, got 4.",
		},
		{
			name:    "missing job description",
			path:    "/screen/text",
			body:    ScreenTextRequest{Resumes: []string{"a"}},
			code:    errors.ErrCodeJobDescRequired,
			message: validation.MsgJobDescRequired,
		},
		{
			name:    "unsupported format",
			path:    "/screen/text?format=xml",
			body:    ScreenTextRequest{JobDescription: "Backend engineer", Resumes: []string{"a"}},
			code:    errors.ErrCodeInvalidFormat,
			message: "unsupported output format 'xml'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screener := &fakeScreener{report: sampleReport()}
			h := newTestServer(t, testServerConfig(), screener, nil).Handler()

			rec := postJSON(t, h, tt.path, tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.Contains(t, resp.Message, tt.message)
			assert.Empty(t, screener.requests)
		})
	}
}

func TestScreenTextRequiresJSON(t *testing.T) {
	h := newTestServer(t, testServerConfig(), &fakeScreener{}, nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/screen/text", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "content-type must be application/json", decodeError(t, rec).Message)
}

func TestScreenDocuments(t *testing.T) {
	screener := &fakeScreener{report: sampleReport()}
	h := newTestServer(t, testServerConfig(), screener, nil).Handler()

	req := multipartRequest(t, "/screen", "Backend engineer with Go", map[string][]byte{
		"a.pdf": []byte("%PDF-1.4 alice"),
		"b.pdf": []byte("%PDF-1.4 bob"),
	}, map[string]string{"generateExplanations": "false"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	got := screener.lastRequest(t)
	require.Len(t, got.Documents, 2)
	assert.Equal(t, []byte("%PDF-1.4 alice"), got.Documents[0])
	assert.Equal(t, []byte("%PDF-1.4 bob"), got.Documents[1])
	assert.Equal(t, "Backend engineer with Go", got.JobDescription)
	assert.False(t, got.GenerateExplanations)
}

func TestScreenDocumentsValidation(t *testing.T) {
	tests := []struct {
		name    string
		jd      string
		files   map[string][]byte
		extra   map[string]string
		code    string
		message string
	}{
		{
			name:    "no files",
			jd:      "Backend engineer",
			code:    errors.ErrCodeNoFiles,
			message: validation.MsgNoFiles,
		},
		{
			name: "not a pdf",
			jd:   "Backend engineer",
			files: map[string][]byte{
				"a.pdf": []byte("%PDF-1.7"),
				"b.pdf": []byte("plain text"),
			},
			code:    errors.ErrCodeInvalidPDF,
			message: "Invalid file format. Files at positions [2] are not valid PDFs. Only PDF format is supported.",
		},
		{
			name:    "missing job description",
			files:   map[string][]byte{"a.pdf": []byte("%PDF-1.7")},
			code:    errors.ErrCodeJobDescRequired,
			message: validation.MsgJobDescRequired,
		},
		{
			name:    "bad explanations flag",
			jd:      "Backend engineer",
			files:   map[string][]byte{"a.pdf": []byte("%PDF-1.7")},
			extra:   map[string]string{"generateExplanations": "maybe"},
			code:    errors.ErrCodeInvalidRequest,
			message: "generateExplanations must be a boolean, got 'maybe'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screener := &fakeScreener{report: sampleReport()}
			h := newTestServer(t, testServerConfig(), screener, nil).Handler()

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, multipartRequest(t, "/screen", tt.jd, tt.files, tt.extra))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.message, resp.Message)
			assert.Empty(t, screener.requests)
		})
	}
}

func TestScreenFatalRun(t *testing.T) {
	msg := "No resumes could be parsed"
	report := types.ScreeningReport{
		RunID:         "run-7",
		Results:       []types.CandidateResult{},
		Error:         &msg,
		SchemaVersion: types.SchemaVersion,
	}
	screener := &fakeScreener{
		report: report,
		err:    &screening.RunError{Message: msg, Fatal: true},
	}
	h := newTestServer(t, testServerConfig(), screener, nil).Handler()

	rec := postJSON(t, h, "/screen/text?format=csv", ScreenTextRequest{
		JobDescription: "Backend engineer",
		Resumes:        []string{"garbage"},
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var got types.ScreeningReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.Error)
	assert.Equal(t, msg, *got.Error)
	assert.Empty(t, got.Results)
}

func TestScreenPartialFailureIsSuccess(t *testing.T) {
	report := sampleReport()
	msg := "Resume 2: Failed to parse resume text: boom"
	report.Error = &msg
	h := newTestServer(t, testServerConfig(), &fakeScreener{report: report}, nil).Handler()

	rec := postJSON(t, h, "/screen/text", ScreenTextRequest{
		JobDescription: "Backend engineer",
		Resumes:        []string{"alice", "bob"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var got types.ScreeningReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.Error)
	assert.Equal(t, msg, *got.Error)
	assert.Len(t, got.Results, 1)
}

func TestScreenPartialFailureExportHeader(t *testing.T) {
	report := sampleReport()
	msg := "Resume 2: Failed to parse resume text: boom;\nResume 3: empty"
	report.Error = &msg

	for _, format := range []string{"csv", "pdf"} {
		t.Run(format, func(t *testing.T) {
			h := newTestServer(t, testServerConfig(), &fakeScreener{report: report}, nil).Handler()

			rec := postJSON(t, h, "/screen/text?format="+format, ScreenTextRequest{
				JobDescription: "Backend engineer",
				Resumes:        []string{"alice", "bob", "carol"},
			})

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "Resume 2: Failed to parse resume text: boom; Resume 3: empty", rec.Header().Get(headerScreeningError))
		})
	}

	t.Run("clean run", func(t *testing.T) {
		h := newTestServer(t, testServerConfig(), &fakeScreener{report: sampleReport()}, nil).Handler()

		rec := postJSON(t, h, "/screen/text?format=csv", ScreenTextRequest{
			JobDescription: "Backend engineer",
			Resumes:        []string{"alice"},
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Header(), headerScreeningError)
	})
}

func TestScreenUnexpectedError(t *testing.T) {
	h := newTestServer(t, testServerConfig(), &fakeScreener{err: io.ErrUnexpectedEOF}, nil).Handler()

	rec := postJSON(t, h, "/screen/text", ScreenTextRequest{
		JobDescription: "Backend engineer",
		Resumes:        []string{"alice"},
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "Screening failed", resp.Error)
	assert.Equal(t, errors.ErrCodeScreeningFailed, resp.Code)
	assert.Equal(t, io.ErrUnexpectedEOF.Error(), resp.Message)
}

func TestScreenExportFormats(t *testing.T) {
	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"csv", "text/csv; charset=utf-8", "# Resume Screening Results\n"},
		{"pdf", "application/pdf", "%PDF-"},
		{"JSON", "application/json", "{"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			h := newTestServer(t, testServerConfig(), &fakeScreener{report: sampleReport()}, nil).Handler()

			rec := postJSON(t, h, "/screen/text?format="+tt.format, ScreenTextRequest{
				JobDescription: "Backend engineer",
				Resumes:        []string{"alice"},
			})

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.True(t, strings.HasPrefix(rec.Body.String(), tt.prefix), "body starts with %q", tt.prefix)
		})
	}
}

func TestScreenCSVAttachment(t *testing.T) {
	h := newTestServer(t, testServerConfig(), &fakeScreener{report: sampleReport()}, nil).Handler()

	rec := postJSON(t, h, "/screen/text?format=csv", ScreenTextRequest{
		JobDescription: "Backend engineer",
		Resumes:        []string{"alice"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="screening-run-42.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "# Generated: 2025-03-14T09:30:00Z\n")
	assert.Contains(t, rec.Body.String(), "# Total Candidates: 1\n")
	assert.Contains(t, rec.Body.String(), "1,Alice,87.5%,100.0%")
}

func TestUploadSizeLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.MaxUploadSize = 16
	h := newTestServer(t, cfg, &fakeScreener{report: sampleReport()}, nil).Handler()

	rec := postJSON(t, h, "/screen/text", ScreenTextRequest{
		JobDescription: strings.Repeat("x", 100),
		Resumes:        []string{"alice"},
	})

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "request body too large (limit is 16 bytes)", decodeError(t, rec).Message)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, testServerConfig(), &fakeScreener{}, nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/screen", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAnalyze(t *testing.T) {
	screener := &fakeScreener{requirements: types.JobRequirements{
		Title:          "Data Engineer",
		RequiredSkills: []string{"Python", "SQL"},
		SchemaVersion:  types.SchemaVersion,
	}}
	h := newTestServer(t, testServerConfig(), screener, nil).Handler()

	rec := postJSON(t, h, "/analyze", AnalyzeRequest{JobDescription: "We need a data engineer"})

	require.Equal(t, http.StatusOK, rec.Code)
	var got types.JobRequirements
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Data Engineer", got.Title)
	assert.Equal(t, []string{"Python", "SQL"}, got.RequiredSkills)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"rate limited", errors.NewAIError(errors.ErrCodeAIRateLimited, "Gemini rate limit exceeded", nil), http.StatusTooManyRequests, errors.ErrCodeAIRateLimited},
		{"timeout", errors.NewAIError(errors.ErrCodeAITimeout, "Gemini request timed out", nil), http.StatusGatewayTimeout, errors.ErrCodeAITimeout},
		{"service failure", errors.NewAIError(errors.ErrCodeAIServiceFailed, "Gemini request failed", nil), http.StatusBadGateway, errors.ErrCodeAIServiceFailed},
		{"empty input", errors.NewValidationError(errors.ErrCodeEmptyInput, "Empty job description", nil), http.StatusBadRequest, errors.ErrCodeEmptyInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, testServerConfig(), &fakeScreener{analyzeErr: tt.err}, nil).Handler()

			rec := postJSON(t, h, "/analyze", AnalyzeRequest{JobDescription: "We need a data engineer"})

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, "Failed to analyze job description", resp.Error)
		})
	}
}

func TestAnalyzeValidation(t *testing.T) {
	cfg := testServerConfig()
	cfg.Screening.MinJobDescriptionLength = 20
	h := newTestServer(t, cfg, &fakeScreener{}, nil).Handler()

	rec := postJSON(t, h, "/analyze", AnalyzeRequest{JobDescription: "  short  "})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, validation.MsgJobDescTooShort, decodeError(t, rec).Message)
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusForError(io.EOF))
	assert.Equal(t, http.StatusInternalServerError,
		statusForError(errors.NewInternalError(errors.ErrCodeScreeningFailed, "boom", nil)))
	assert.Equal(t, http.StatusBadGateway,
		statusForError(errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "dial", nil)))
}
