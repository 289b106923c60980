package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"whchecker-backend/internal/shared/metrics"
	"whchecker-backend/internal/shared/server/respond"
)

const (
	defaultRateLimitGroup = "DEFAULT"
	// Buckets untouched for this long are full again and can be dropped.
	bucketIdleTTL = 10 * time.Minute
	pruneEvery    = 1024
)

// RateLimitRule is a token bucket refilled at Rate tokens per second up to Burst.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// RateLimitConfig selects a rule per request group. Requests are keyed by
// PrincipalFor, falling back to the client IP. Groups without a rule are not limited.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	PrincipalFor func(*gin.Context) string
	Limiter      *RateLimiter
}

// RateLimiter holds token buckets keyed by principal and group.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	calls   int
	now     func() time.Time
}

type rateBucket struct {
	tokens float64
	last   time.Time
}

// NewRateLimiter returns an empty limiter. A nil now uses time.Now.
func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		buckets: make(map[string]*rateBucket),
		now:     now,
	}
}

// RateLimit rejects requests over their group's rule with 429 and Retry-After.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.groupOf(c)
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}

		allowed, retryAfter := cfg.Limiter.Allow(cfg.principalOf(c)+"|"+group, rule)
		if allowed {
			c.Next()
			return
		}

		metrics.IncRateLimited(group)
		retryAfterMs := int(retryAfter / time.Millisecond)
		if retryAfterMs <= 0 {
			retryAfterMs = 1000
		}
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(float64(retryAfterMs)/1000))))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "too many requests", gin.H{
			"group":        group,
			"retryAfterMs": retryAfterMs,
		})
	}
}

func (cfg RateLimitConfig) groupOf(c *gin.Context) string {
	if cfg.GroupFor != nil {
		if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
			return g
		}
	}
	return cfg.DefaultGroup
}

func (cfg RateLimitConfig) principalOf(c *gin.Context) string {
	if cfg.PrincipalFor != nil {
		if p := strings.TrimSpace(cfg.PrincipalFor(c)); p != "" {
			return p
		}
	}
	return strings.TrimSpace(c.ClientIP())
}

// Allow takes one token from key's bucket. When the bucket is empty it
// reports how long until a token is available.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%pruneEvery == 0 {
		l.pruneLocked(now)
	}

	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &rateBucket{tokens: float64(rule.Burst), last: now}
		l.buckets[key] = bucket
	}
	if elapsed := now.Sub(bucket.last).Seconds(); elapsed > 0 {
		bucket.tokens = math.Min(float64(rule.Burst), bucket.tokens+elapsed*rule.Rate)
		bucket.last = now
	}
	if bucket.tokens >= 1 {
		bucket.tokens--
		return true, 0
	}
	wait := (1 - bucket.tokens) / rule.Rate
	return false, time.Duration(math.Ceil(wait*1000)) * time.Millisecond
}

// Len reports the number of tracked buckets.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *RateLimiter) pruneLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.last) > bucketIdleTTL {
			delete(l.buckets, key)
		}
	}
}
