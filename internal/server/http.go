package server

import (
	"context"
	"time"

	"resumescreener/internal/ai"
	"resumescreener/internal/config"
	"resumescreener/internal/errors"
	"resumescreener/internal/observability"
	"resumescreener/internal/screening"
	"resumescreener/internal/types"
)

// Screener runs screening requests and job description analysis, and
// reports the progress of runs in flight.
type Screener interface {
	Screen(ctx context.Context, req screening.Request) (types.ScreeningReport, error)
	Analyze(ctx context.Context, jobDescription string) (types.JobRequirements, error)
	ActiveRuns() map[string]types.ProcessingStatus
}

// AIStatus reports model availability and circuit breaker state per operation.
type AIStatus interface {
	HealthCheck(ctx context.Context) map[string]*ai.ModelInfo
	CircuitBreakerStats() map[string]any
}

// ScreenTextRequest is the body of POST /screen/text.
type ScreenTextRequest = types.ScreenTextRequest

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest = types.AnalyzeJobInput

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	TLSConfig config.TLSConfig
	certs     *certificateStore

	// Timeout configurations
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	HealthCheckTimeout time.Duration

	// Upload limit for every POST body
	MaxUploadSize int64

	// Batch limits and defaults for screening requests
	Screening config.ScreeningConfig

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	screener      Screener
	aiStatus      AIStatus
	observability *observability.Manager
	now           func() time.Time

	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host               string
	Port               string
	Version            string
	TLSConfig          config.TLSConfig
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	HealthCheckTimeout time.Duration
	MaxUploadSize      int64
	Screening          config.ScreeningConfig
	RateLimit          *config.RateLimitConfig
}

// NewServerConfig collects the server settings from the application config.
func NewServerConfig(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		Version:            version,
		TLSConfig:          cfg.Server.TLS,
		ReadTimeout:        cfg.Server.ReadTimeout,
		WriteTimeout:       cfg.Server.WriteTimeout,
		IdleTimeout:        cfg.Server.IdleTimeout,
		HealthCheckTimeout: cfg.Observability.HealthCheck.Timeout,
		MaxUploadSize:      cfg.Server.MaxUploadSize,
		Screening:          cfg.Screening,
		RateLimit:          &cfg.Server.RateLimit,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(cfg ServerConfig, screener Screener, aiStatus AIStatus, om *observability.Manager, logger *errors.Logger) *Server {
	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			cfg.RateLimit.CleanupEvery,
			logger,
		)
	}

	healthTimeout := cfg.HealthCheckTimeout
	if healthTimeout <= 0 {
		healthTimeout = 10 * time.Second
	}

	return &Server{
		Host:               cfg.Host,
		Port:               cfg.Port,
		Version:            cfg.Version,
		TLSConfig:          cfg.TLSConfig,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		IdleTimeout:        cfg.IdleTimeout,
		HealthCheckTimeout: healthTimeout,
		MaxUploadSize:      cfg.MaxUploadSize,
		Screening:          cfg.Screening,
		RateLimit:          cfg.RateLimit,
		RateLimiter:        rateLimiter,
		screener:           screener,
		aiStatus:           aiStatus,
		observability:      om,
		now:                time.Now,
		Logger:             logger,
	}
}
