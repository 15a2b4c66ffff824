package httpadapter

import (
	"net/http"
	"strconv"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// rateLimitMiddleware applies a process-wide token bucket to every request,
// shedding load with 429 once the burst is exhausted rather than queuing
// requests behind a slow upstream LLM.
func rateLimitMiddleware(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 20
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "请求过于频繁，请稍后重试"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// backpressureMiddleware rejects requests once more than maxInFlight are
// being handled concurrently, shedding load with 503 rather than letting
// the process queue unbounded work behind a slow upstream LLM call.
func backpressureMiddleware(maxInFlight int64) func(http.Handler) http.Handler {
	if maxInFlight <= 0 {
		maxInFlight = 100
	}
	var inFlight int64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt64(&inFlight, 1) > maxInFlight {
				atomic.AddInt64(&inFlight, -1)
				w.Header().Set("Retry-After", strconv.Itoa(2))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "服务繁忙，请稍后重试"})
				return
			}
			defer atomic.AddInt64(&inFlight, -1)
			next.ServeHTTP(w, r)
		})
	}
}
