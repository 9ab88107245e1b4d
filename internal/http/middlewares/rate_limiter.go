package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/geocoder89/authhub/internal/observability"
	"github.com/gin-gonic/gin"
)

// LimitStore counts hits per key in fixed windows. The Redis client and
// MemoryLimitStore both implement it.
type LimitStore interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

type RateLimiter struct {
	store  LimitStore
	limit  int
	window time.Duration
	prom   *observability.Prom
	log    *slog.Logger
}

func NewRateLimiter(store LimitStore, limit int, window time.Duration, prom *observability.Prom, log *slog.Logger) *RateLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimiter{
		store:  store,
		limit:  limit,
		window: window,
		prom:   prom,
		log:    log,
	}
}

// Middleware returns a gin.HandlerFunc that enforces rate limit for a derived key

func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		allowed, retryAfter, err := rl.store.Hit(c.Request.Context(), route+"|"+key, rl.limit, rl.window)
		if err != nil {
			// a broken limiter backend must not lock users out
			rl.log.WarnContext(c.Request.Context(), "rate limiter unavailable, allowing request", "err", err)
			c.Next()
			return
		}

		if !allowed {
			secs := int(retryAfter.Round(time.Second).Seconds())

			if secs < 1 {
				secs = 1
			}

			rl.prom.ObserveRateLimited(route)

			c.Header("Retry-After", strconv.Itoa(secs))
			abortWithError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}

const maxTrackedClients = 10000

type clientBucket struct {
	count     int
	windowEnd time.Time
}

// MemoryLimitStore is a per-process fixed window counter.
type MemoryLimitStore struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	now     func() time.Time
}

func NewMemoryLimitStore() *MemoryLimitStore {
	return &MemoryLimitStore{
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (s *MemoryLimitStore) Hit(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.clients[key]

	if !ok || !now.Before(b.windowEnd) {
		if !ok && len(s.clients) >= maxTrackedClients {
			s.pruneLocked(now)
		}

		s.clients[key] = &clientBucket{
			count:     1,
			windowEnd: now.Add(window),
		}
		return true, 0, nil
	}

	if b.count >= limit {
		return false, b.windowEnd.Sub(now), nil
	}

	b.count++
	return true, 0, nil
}

func (s *MemoryLimitStore) pruneLocked(now time.Time) {
	for k, b := range s.clients {
		if !now.Before(b.windowEnd) {
			delete(s.clients, k)
		}
	}
}
