package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/nkiryanov/festival/internal/handlers/render"
	"github.com/nkiryanov/festival/internal/ratelimit"
)

type limiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
}

type warnLogger interface {
	Warn(msg string, args ...any)
}

// RateLimit limits requests per client IP. Limiter failures let the request through
func RateLimit(l limiter, log warnLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)

			decision, err := l.Allow(r.Context(), key)
			if err != nil {
				log.Warn("rate limiter failed, request allowed", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))

			if !decision.Allowed {
				secs := int(math.Ceil(decision.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 0)))
				render.ServiceError(w, "Too many requests, please try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return "unknown"
	}
	return host
}

// Limiter that never limits, used when redis is not configured
type NoLimit struct{}

func (NoLimit) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: true, Limit: math.MaxInt32, Remaining: math.MaxInt32}, nil
}
