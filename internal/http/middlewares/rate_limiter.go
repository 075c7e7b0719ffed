package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/geocoder89/fleetreg/internal/observability"
	"github.com/gin-gonic/gin"
)

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RateStore counts hits per key in fixed windows.
type RateStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

type RateLimiter struct {
	store  RateStore
	limit  int
	window time.Duration
	prom   *observability.Prom
}

func NewRateLimiter(store RateStore, limit int, window time.Duration, prom *observability.Prom) *RateLimiter {
	return &RateLimiter{store: store, limit: limit, window: window, prom: prom}
}

// Middleware enforces the limit for a derived key. Store errors let the request through.
func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		d, err := rl.store.Allow(c.Request.Context(), key, rl.limit, rl.window)
		if err != nil {
			slog.Default().WarnContext(c.Request.Context(), "ratelimit.store_error", "err", err)
			c.Next()
			return
		}

		if !d.Allowed {
			retryAfter := int(d.RetryAfter.Seconds())

			if retryAfter < 0 {
				retryAfter = 0
			}

			rl.prom.IncRateLimited(c.FullPath())
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})

			return
		}

		c.Next()
	}
}

// MemoryRateStore is a process-local fixed-window counter.
type MemoryRateStore struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (s *MemoryRateStore) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.clients[key]

	if !ok || now.After(b.windowEnd) {
		s.clients[key] = &clientBucket{
			count:     1,
			windowEnd: now.Add(window),
		}
		return Decision{Allowed: true}, nil
	}

	if b.count >= limit {
		return Decision{Allowed: false, RetryAfter: b.windowEnd.Sub(now)}, nil
	}

	b.count++
	return Decision{Allowed: true}, nil
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return "ip:" + clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
