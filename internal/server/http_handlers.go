package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"resumescreener/internal/ai"
	"resumescreener/internal/errors"
	"resumescreener/internal/types"
)

const serviceName = "resume-screener"

type healthResponse struct {
	Status          string                   `json:"status"`
	Service         string                   `json:"service"`
	Version         string                   `json:"version"`
	AIModels        map[string]*ai.ModelInfo `json:"ai_models,omitempty"`
	CircuitBreakers map[string]any           `json:"circuit_breakers,omitempty"`
	Certificates    map[string]any           `json:"certificates,omitempty"`
}

type screeningLimits struct {
	MaxFiles                int  `json:"max_files"`
	MinJobDescriptionLength int  `json:"min_job_description_length"`
	MaxJobDescriptionLength int  `json:"max_job_description_length"`
	GenerateExplanations    bool `json:"generate_explanations"`
}

type statsResponse struct {
	Service          string                            `json:"service"`
	Version          string                            `json:"version"`
	Server           map[string]any                    `json:"server"`
	Screening        screeningLimits                   `json:"screening"`
	ActiveScreenings map[string]types.ProcessingStatus `json:"active_screenings"`
	RateLimiting     map[string]any                    `json:"rate_limiting"`
}

// Certificates closer to expiry than these are reported as critical
// (unhealthy) or warning (still healthy).
const (
	certCriticalWindow = 24 * time.Hour
	certWarningWindow  = 7 * 24 * time.Hour
)

// healthHandler reports model availability, breaker state and, with TLS on,
// certificate expiry. Any unavailable model or a critical certificate turns
// the status to degraded with a 503.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Service: serviceName, Version: s.Version}
	healthy := true

	if s.aiStatus != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.HealthCheckTimeout)
		defer cancel()

		resp.AIModels = s.aiStatus.HealthCheck(ctx)
		resp.CircuitBreakers = s.aiStatus.CircuitBreakerStats()
		for _, model := range resp.AIModels {
			healthy = healthy && model != nil && model.Available
		}
		if resp.AIModels == nil {
			resp.AIModels = map[string]*ai.ModelInfo{}
		}
	}

	if s.certs != nil {
		var certOK bool
		resp.Certificates, certOK = s.certificateHealth()
		healthy = healthy && certOK
	}

	code := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// certificateHealth adds the expiry classification to the store status.
func (s *Server) certificateHealth() (map[string]any, bool) {
	status := s.certs.Status()

	left, err := s.certs.TimeToExpiry(s.now())
	if err != nil {
		status["healthy"] = false
		status["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return status, false
	}

	label, ok := expiryLabel(left)
	status["time_to_expiry_hours"] = int(left.Hours())
	status["status"] = label
	status["healthy"] = ok
	return status, ok
}

func expiryLabel(left time.Duration) (string, bool) {
	switch {
	case left <= 0:
		return "expired", false
	case left <= certCriticalWindow:
		return "critical", false
	case left <= certWarningWindow:
		return "warning", true
	}
	return "ok", true
}

func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request) {
	resp := statsResponse{
		Service: serviceName,
		Version: s.Version,
		Server:  map[string]any{"max_upload_size_bytes": s.MaxUploadSize},
		Screening: screeningLimits{
			MaxFiles:                s.Screening.MaxFiles,
			MinJobDescriptionLength: s.Screening.MinJobDescriptionLength,
			MaxJobDescriptionLength: s.Screening.MaxJobDescriptionLength,
			GenerateExplanations:    s.Screening.GenerateExplanations,
		},
		ActiveScreenings: s.screener.ActiveRuns(),
		RateLimiting:     map[string]any{"enabled": false},
	}
	if s.RateLimiter != nil {
		resp.RateLimiting = s.RateLimiter.GetStats()
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseJSONRequest decodes an application/json body into v.
func parseJSONRequest(r *http.Request, v any) error {
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeErrorResponse(w http.ResponseWriter, title, message string, code int) {
	writeJSON(w, code, ErrorResponse{Error: title, Message: message})
}

// writeAppError writes err's user message and, for an AppError, its code.
func writeAppError(w http.ResponseWriter, title string, err error, code int) {
	resp := ErrorResponse{Error: title, Message: errors.UserMessage(err)}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		resp.Code = appErr.Code
	}
	writeJSON(w, code, resp)
}
