package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"resumescreener/internal/errors"
	"resumescreener/internal/screening"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom metrics of the screener
type Metrics struct {
	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Screening run metrics
	Screenings        metric.Int64Counter
	CandidatesParsed  metric.Int64Counter
	CandidatesFailed  metric.Int64Counter
	ScreeningDuration metric.Float64Histogram
	TopScore          metric.Float64Histogram

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	counter := func(name, description string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(description))
		if err != nil {
			err = fmt.Errorf("failed to create %s metric: %w", name, err)
		}
		return c
	}

	m.AIRequestCount = counter("screener_ai_requests_total", "Total number of AI requests")
	m.AIErrorCount = counter("screener_ai_errors_total", "Total number of AI request errors")
	m.Screenings = counter("screener_screenings_total", "Total number of screening runs")
	m.CandidatesParsed = counter("screener_candidates_parsed_total", "Candidates ranked in screening runs")
	m.CandidatesFailed = counter("screener_candidates_failed_total", "Candidates skipped because extraction or matching failed")
	m.RateLimitHits = counter("screener_rate_limit_hits_total", "Total number of rate limit hits")
	if err != nil {
		return nil, err
	}

	m.AIProcessingTime, err = meter.Float64Histogram(
		"screener_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	m.AITokenUsage, err = meter.Int64Histogram(
		"screener_ai_tokens",
		metric.WithDescription("Token usage for AI requests (input, output)"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	m.ScreeningDuration, err = meter.Float64Histogram(
		"screener_screening_duration_seconds",
		metric.WithDescription("Wall time of screening runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create screening duration metric: %w", err)
	}

	m.TopScore, err = meter.Float64Histogram(
		"screener_top_score",
		metric.WithDescription("Overall score of the best candidate per run"),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create top score metric: %w", err)
	}

	return m, nil
}

// RecordAIOperation records one model request. Token counts of zero are not
// recorded.
func (om *Manager) RecordAIOperation(ctx context.Context, operation string, duration time.Duration, err error, inputTokens, outputTokens int64) {
	if om.metrics == nil || !om.config.CustomMetrics.AIOperations.Enabled {
		return
	}
	m := om.metrics
	cfg := om.config.CustomMetrics.AIOperations

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}

	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if cfg.TrackDuration {
		m.AIProcessingTime.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("error_code", errorCode(err)))...))
	}

	if !cfg.TrackTokenUsage {
		return
	}
	for _, tokens := range []struct {
		kind  string
		value int64
	}{
		{"input", inputTokens},
		{"output", outputTokens},
	} {
		if tokens.value <= 0 {
			continue
		}
		m.AITokenUsage.Record(ctx, tokens.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", tokens.kind),
		))
	}
}

// RecordScreening records the outcome of one screening run.
func (om *Manager) RecordScreening(ctx context.Context, summary screening.RunSummary) {
	if om.metrics == nil || !om.config.CustomMetrics.ScreeningRuns.Enabled {
		return
	}
	m := om.metrics
	cfg := om.config.CustomMetrics.ScreeningRuns

	outcome := "success"
	switch {
	case summary.Fatal:
		outcome = "failed"
	case summary.Failed > 0:
		outcome = "partial"
	}
	attrs := metric.WithAttributes(
		attribute.String("source", summary.Source),
		attribute.String("outcome", outcome),
	)

	m.Screenings.Add(ctx, 1, attrs)
	if cfg.TrackCandidates {
		source := metric.WithAttributes(attribute.String("source", summary.Source))
		m.CandidatesParsed.Add(ctx, int64(summary.Ranked), source)
		m.CandidatesFailed.Add(ctx, int64(summary.Failed), source)
	}
	if cfg.TrackRunDuration {
		m.ScreeningDuration.Record(ctx, summary.Duration.Seconds(), attrs)
	}
	if cfg.TrackTopScore && summary.TopScore != nil {
		m.TopScore.Record(ctx, *summary.TopScore, metric.WithAttributes(attribute.String("source", summary.Source)))
	}
}

// RecordRateLimitHit records a request rejected by the rate limiter.
func (om *Manager) RecordRateLimitHit(ctx context.Context, route string) {
	if om.metrics == nil || !om.config.CustomMetrics.TrackRateLimits {
		return
	}
	om.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

func errorCode(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}
