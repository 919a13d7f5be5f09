package api

import (
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

type rateLimiter interface {
	Allow() bool
}

type limiterAdapter struct {
	limiter *rate.Limiter
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &limiterAdapter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (l *limiterAdapter) Allow() bool {
	if l == nil || l.limiter == nil {
		return true
	}
	return l.limiter.Allow()
}

// retryAfterSeconds is the time until one token is refilled, rounded up.
func (l *limiterAdapter) retryAfterSeconds() int {
	if l == nil || l.limiter == nil || l.limiter.Limit() <= 0 {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/float64(l.limiter.Limit()))))
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	retryAfter := 1
	if adapter, ok := limiter.(*limiterAdapter); ok {
		retryAfter = adapter.retryAfterSeconds()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
