package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"resumescreener/internal/errors"

	"golang.org/x/time/rate"
)

// globalRateLimitKey is shared by every client when limiting is not per IP.
const globalRateLimitKey = "global"

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key. Buckets idle for longer
// than the cleanup interval are evicted in the background.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*clientBucket

	stop     chan struct{}
	stopOnce sync.Once
	logger   *errors.Logger
}

// NewRateLimiter allows requestsPerMin per key with the given burst. A
// non-positive burst means 1 and a non-positive cleanupEvery ten minutes.
func NewRateLimiter(requestsPerMin, burst int, cleanupEvery time.Duration, logger *errors.Logger) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if cleanupEvery <= 0 {
		cleanupEvery = 10 * time.Minute
	}

	rl := &RateLimiter{
		limit:   rate.Every(time.Minute / time.Duration(max(requestsPerMin, 1))),
		burst:   burst,
		now:     time.Now,
		buckets: make(map[string]*clientBucket),
		stop:    make(chan struct{}),
		logger:  logger,
	}
	go rl.evictLoop(cleanupEvery)
	return rl
}

// Allow takes one token from the bucket of key.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter.AllowN(now, 1)
}

// GetStats reports the limiter settings and the number of tracked clients.
func (rl *RateLimiter) GetStats() map[string]any {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]any{
		"enabled":         true,
		"active_limiters": len(rl.buckets),
		"rate_per_second": float64(rl.limit),
		"rate_per_minute": float64(rl.limit) * 60,
		"burst_capacity":  rl.burst,
	}
}

// Close stops background eviction. Safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(every)
		case <-rl.stop:
			return
		}
	}
}

// evictIdle drops buckets not used within maxIdle.
func (rl *RateLimiter) evictIdle(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxIdle)
	for key, bucket := range rl.buckets {
		if bucket.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
	rl.logger.Debug("Evicted idle rate limit buckets", "remaining", len(rl.buckets))
}

// rateLimitMiddleware answers 429 once a client has used up its bucket.
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	byIP := s.RateLimit != nil && s.RateLimit.ByIP
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := globalRateLimitKey
			if byIP {
				key = "ip:" + getClientIP(r)
			}

			if !s.RateLimiter.Allow(key) {
				s.Logger.Info("Rate limit exceeded", "key", key, "endpoint", r.URL.Path)
				s.observability.RecordRateLimitHit(r.Context(), r.URL.Path)
				writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
				return
			}
			next(w, r)
		}
	}
}

// getClientIP prefers the first valid X-Forwarded-For entry, then X-Real-IP,
// then the connection's remote address.
func getClientIP(r *http.Request) string {
	for candidate := range strings.SplitSeq(r.Header.Get("X-Forwarded-For"), ",") {
		candidate = strings.TrimSpace(candidate)
		if net.ParseIP(candidate) != nil {
			return candidate
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
