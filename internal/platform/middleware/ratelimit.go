package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// MaxClients bounds how many client buckets are tracked. The least
	// recently seen client is evicted first; it starts over with a full
	// bucket if it returns.
	MaxClients int
	// Skipper excludes requests from limiting, e.g. health checks.
	Skipper func(c echo.Context) bool
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 50,
		BurstSize:         100,
		MaxClients:        10000,
	}
}

// tokenBucket implements a token bucket rate limiter.
type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(rate float64, burst int, now time.Time) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: rate,
		lastRefill: now,
	}
}

// take refills the bucket up to now and consumes one token if available.
// It returns whether the request is allowed, the tokens left, and how
// long until the next token.
func (b *tokenBucket) take(now time.Time) (bool, int, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.maxTokens {
			b.tokens = b.maxTokens
		}
		b.lastRefill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens), 0
	}
	if b.refillRate <= 0 {
		return false, 0, time.Second
	}
	wait := time.Duration((1 - b.tokens) / b.refillRate * float64(time.Second))
	return false, 0, wait
}

// bucketStore holds per-client token buckets in a bounded LRU.
type bucketStore struct {
	buckets *lru.Cache[string, *tokenBucket]
	mu      sync.Mutex
	config  RateLimitConfig
}

func newBucketStore(cfg RateLimitConfig) (*bucketStore, error) {
	size := cfg.MaxClients
	if size <= 0 {
		size = DefaultRateLimitConfig().MaxClients
	}
	cache, err := lru.New[string, *tokenBucket](size)
	if err != nil {
		return nil, fmt.Errorf("rate limit store: %w", err)
	}
	return &bucketStore{buckets: cache, config: cfg}, nil
}

func (s *bucketStore) get(key string, now time.Time) *tokenBucket {
	if b, ok := s.buckets.Get(key); ok {
		return b
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buckets.Get(key); ok {
		return b
	}
	b := newTokenBucket(s.config.RequestsPerSecond, s.config.BurstSize, now)
	s.buckets.Add(key, b)
	return b
}

// RateLimit returns a per-client rate limiting middleware. Clients are
// keyed by the authenticated subject when present, otherwise by IP.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store, err := newBucketStore(cfg)
	if err != nil {
		panic(err)
	}
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			key := "ip:" + c.RealIP()
			if sub, ok := c.Get("auth_subject").(string); ok && sub != "" {
				key = "sub:" + sub
			}

			allowed, remaining, wait := store.get(key, time.Now()).take(time.Now())
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				retryAfter := int(wait/time.Second) + 1
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
