package ai

import (
	"fmt"

	"resumescreener/internal/config"
	"resumescreener/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// Breaker guards calls returning T with a gobreaker circuit breaker.
// A nil Breaker runs calls directly.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// tripPolicy decides when accumulated failures open the breaker.
type tripPolicy struct {
	minRequests      uint32
	failureThreshold float64
}

func (p tripPolicy) readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests == 0 {
		return false
	}
	failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
	return counts.Requests >= p.minRequests && failureRatio >= p.failureThreshold
}

// newBreaker builds the breaker for one operation, or nil when disabled.
func newBreaker[T any](name string, cfg config.CircuitBreakerConfig, policy tripPolicy, logger *errors.Logger) *Breaker[T] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: policy.readyToTrip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", policy.failureThreshold)
		},
	}

	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// NewGenerationBreaker creates the breaker guarding content generation for an operation.
func NewGenerationBreaker[T any](operation string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *Breaker[T] {
	return newBreaker[T](fmt.Sprintf("AI-%s", operation), cfg,
		tripPolicy{minRequests: cfg.MinRequests, failureThreshold: cfg.FailureThreshold}, logger)
}

// NewModelBreaker creates the breaker guarding model availability checks.
// Health checks are less critical, so it trips later than the generation breaker.
func NewModelBreaker[T any](operation string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *Breaker[T] {
	return newBreaker[T](fmt.Sprintf("AI-Model-%s", operation), cfg,
		tripPolicy{minRequests: 5, failureThreshold: 0.8}, logger)
}

// Execute runs fn under the breaker.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats returns the breaker name, state and counts.
func (b *Breaker[T]) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy reports whether the breaker is closed. A disabled breaker is healthy.
func (b *Breaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
