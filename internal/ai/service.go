package ai

import (
	"context"
	"fmt"

	"resumescreener/internal/config"
	"resumescreener/internal/errors"
)

// Service bundles the three AI collaborators of a screening run, each on its
// own provider and circuit breakers.
type Service struct {
	Requirements *RequirementsAnalyzer
	Resumes      *ResumeParser
	Explanations *Explainer

	providers map[string]*GeminiProvider
	logger    *errors.Logger
}

// NewService creates the providers for every operation from cfg.
func NewService(ctx context.Context, cfg *config.Config, logger *errors.Logger, opts ...ProviderOption) (*Service, error) {
	opts = append([]ProviderOption{WithModelCheckTimeout(cfg.Observability.HealthCheck.AIModelCheckTimeout)}, opts...)

	operations := map[string]config.OperationAIConfig{
		OperationRequirements: cfg.GetRequirementsConfig(),
		OperationResume:       cfg.GetResumeConfig(),
		OperationExplain:      cfg.GetExplainConfig(),
	}

	providers := make(map[string]*GeminiProvider, len(operations))
	for operation, opCfg := range operations {
		if opCfg.Provider != "gemini" {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("Unsupported AI provider: %s", opCfg.Provider), nil)
		}
		provider, err := NewGeminiProvider(ctx, opCfg, operation, logger, opts...)
		if err != nil {
			return nil, err
		}
		providers[operation] = provider
	}

	return newService(providers, logger), nil
}

func newService(providers map[string]*GeminiProvider, logger *errors.Logger) *Service {
	return &Service{
		Requirements: NewRequirementsAnalyzer(providers[OperationRequirements]),
		Resumes:      NewResumeParser(providers[OperationResume]),
		Explanations: NewExplainer(providers[OperationExplain]),
		providers:    providers,
		logger:       logger,
	}
}

// HealthCheck checks the model of every operation.
func (s *Service) HealthCheck(ctx context.Context) map[string]*ModelInfo {
	out := make(map[string]*ModelInfo, len(s.providers))
	for operation, provider := range s.providers {
		out[operation] = provider.GetModelInfo(ctx)
	}
	return out
}

// CircuitBreakerStats returns breaker state per operation.
func (s *Service) CircuitBreakerStats() map[string]any {
	out := make(map[string]any, len(s.providers))
	for operation, provider := range s.providers {
		out[operation] = provider.CircuitBreakerStats()
	}
	return out
}

// Close releases every provider.
func (s *Service) Close() error {
	for operation, provider := range s.providers {
		if err := provider.Close(); err != nil {
			s.logger.LogError(err, "Failed to close AI provider", "operation", operation)
			return err
		}
	}
	return nil
}
