package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"resumescreener/internal/config"
	"resumescreener/internal/errors"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// contentModel is the part of the genai Models service the provider uses.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// Recorder receives one call per model request.
type Recorder interface {
	RecordAIOperation(ctx context.Context, operation string, duration time.Duration, err error, inputTokens, outputTokens int64)
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GeminiProvider runs one operation (requirements, resume or explanation)
// against Gemini with its own model settings, prompts and circuit breakers.
type GeminiProvider struct {
	models       contentModel
	operation    string
	config       config.OperationAIConfig
	prompts      Prompts
	breaker      *Breaker[*genai.GenerateContentResponse]
	modelBreaker *Breaker[*genai.Model]
	recorder     Recorder
	checkTimeout time.Duration
	logger       *errors.Logger
}

// ProviderOption customises a GeminiProvider.
type ProviderOption func(*GeminiProvider)

// WithRecorder reports every request to r.
func WithRecorder(r Recorder) ProviderOption {
	return func(g *GeminiProvider) { g.recorder = r }
}

// WithModelCheckTimeout bounds GetModelInfo.
func WithModelCheckTimeout(d time.Duration) ProviderOption {
	return func(g *GeminiProvider) {
		if d > 0 {
			g.checkTimeout = d
		}
	}
}

// NewGeminiProvider creates a Gemini client for one operation. cfg must be a
// resolved operation config (see config.Config.GetResumeConfig and friends).
func NewGeminiProvider(ctx context.Context, cfg config.OperationAIConfig, operation string, logger *errors.Logger, opts ...ProviderOption) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, "Gemini API key is not configured", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Timeout:   *cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create Gemini client", err)
	}

	return newGeminiProvider(client.Models, cfg, operation, logger, opts...), nil
}

func newGeminiProvider(models contentModel, cfg config.OperationAIConfig, operation string, logger *errors.Logger, opts ...ProviderOption) *GeminiProvider {
	g := &GeminiProvider{
		models:       models,
		operation:    operation,
		config:       cfg,
		prompts:      resolvePrompts(operation, cfg.Prompts),
		breaker:      NewGenerationBreaker[*genai.GenerateContentResponse](operation, cfg.CircuitBreaker, logger),
		modelBreaker: NewModelBreaker[*genai.Model](operation, cfg.CircuitBreaker, logger),
		checkTimeout: 10 * time.Second,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(g)
	}

	logger.Debug("Initialized AI provider",
		"provider", cfg.Provider,
		"operation", operation,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"use_system_prompts", *cfg.UseSystemPrompts,
		"circuit_breaker", cfg.CircuitBreaker.Enabled)
	return g
}

// generate sends one prompt and hands the response text to parse. A non-nil
// schema requests a JSON response.
func generate[Out any](
	ctx context.Context,
	g *GeminiProvider,
	userPrompt string,
	schema *genai.Schema,
	parse func(string) (Out, error),
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("screener.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+g.operation)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	genaiConfig := &genai.GenerateContentConfig{}
	if schema != nil {
		genaiConfig.ResponseMIMEType = "application/json"
		genaiConfig.ResponseSchema = schema
	}
	if *g.config.Temperature > 0 {
		genaiConfig.Temperature = g.config.Temperature
	}
	if *g.config.UseSystemPrompts && g.prompts.System != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(g.prompts.System, genai.RoleUser)
	}

	callCtx, cancel := context.WithTimeout(ctx, *g.config.Timeout)
	defer cancel()

	start := time.Now()
	result, err := g.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.models.GenerateContent(callCtx, g.config.Model, genai.Text(userPrompt), genaiConfig)
	})
	if err != nil {
		appErr := g.classifyError(err)
		g.record(ctx, time.Since(start), appErr, nil)
		span.RecordError(err)
		span.SetStatus(codes.Error, appErr.Message)
		span.SetAttributes(attribute.Bool("success", false))
		g.logger.LogError(appErr, "AI request failed", "operation", g.operation, "model", g.config.Model)
		return output, nil, appErr
	}

	tokenUsage := extractTokenUsage(result)
	g.record(ctx, time.Since(start), nil, tokenUsage)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	output, err = parse(result.Text())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "response could not be parsed")
		span.SetAttributes(attribute.Bool("success", false))
		return output, tokenUsage, err
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

func (g *GeminiProvider) record(ctx context.Context, duration time.Duration, err error, usage *TokenUsage) {
	if g.recorder == nil {
		return
	}
	var input, output int64
	if usage != nil {
		input, output = usage.InputTokens, usage.OutputTokens
	}
	g.recorder.RecordAIOperation(ctx, g.operation, duration, err, input, output)
}

// classifyError maps a failed Gemini call onto the AI error codes. Calls are
// never retried, so the code tells the caller what happened.
func (g *GeminiProvider) classifyError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewAIError(errors.ErrCodeAITimeout,
			fmt.Sprintf("Gemini request timed out after %s", *g.config.Timeout), err)
	case isNetworkTimeout(err):
		return errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "Network timeout while calling Gemini", err)
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"AI service temporarily unavailable (circuit breaker open)", err)
	case isRateLimited(err):
		return errors.NewAIError(errors.ErrCodeAIRateLimited, "Gemini rate limit exceeded", err)
	default:
		return errors.NewAIError(errors.ErrCodeAIServiceFailed,
			fmt.Sprintf("Gemini request failed: %v", err), err)
	}
}

func isNetworkTimeout(err error) bool {
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

func isRateLimited(err error) bool {
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	return strings.Contains(err.Error(), "RESOURCE_EXHAUSTED")
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, g.checkTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"operation", g.operation,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model != nil {
		modelInfo.DisplayName = model.DisplayName
		modelInfo.Version = model.Version
	}
	return modelInfo
}

// CircuitBreakerStats returns the state of both breakers and whether they are closed.
func (g *GeminiProvider) CircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.breaker.Stats(),
		"model_operations": g.modelBreaker.Stats(),
		"overall_healthy":  g.breaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close releases provider resources. The genai client holds none in
// request/response mode.
func (g *GeminiProvider) Close() error {
	return nil
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

func requirementsSchema() *genai.Schema {
	stringArray := func() *genai.Schema {
		return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":                  {Type: genai.TypeString},
			"required_skills":        stringArray(),
			"preferred_skills":       stringArray(),
			"min_experience_years":   {Type: genai.TypeInteger},
			"education_requirements": stringArray(),
			"responsibilities":       stringArray(),
		},
		Required: []string{"title", "required_skills", "preferred_skills", "min_experience_years", "education_requirements", "responsibilities"},
	}
}

func resumeSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":   {Type: genai.TypeString},
			"email":  {Type: genai.TypeString},
			"phone":  {Type: genai.TypeString},
			"skills": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"experience": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":           {Type: genai.TypeString},
						"company":         {Type: genai.TypeString},
						"duration_months": {Type: genai.TypeInteger},
						"description":     {Type: genai.TypeString},
					},
					Required: []string{"title", "company"},
				},
			},
			"education": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"degree":      {Type: genai.TypeString},
						"institution": {Type: genai.TypeString},
						"year":        {Type: genai.TypeInteger},
						"field":       {Type: genai.TypeString},
					},
					Required: []string{"degree", "institution"},
				},
			},
		},
		Required: []string{"name", "skills", "experience", "education"},
	}
}
