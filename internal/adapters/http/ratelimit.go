package httpadapter

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/kirillkom/arxiv-simplifier/internal/ratelimit"
)

// rateLimitMiddleware runs the per-client sliding-window check before the
// wrapped handler does any work. Limit headers are set on every response;
// Retry-After only on rejection.
func (rt *Router) rateLimitMiddleware(limiter *ratelimit.Limiter, endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := limiter.Check(ratelimit.ClientID(r), time.Now())

		header := w.Header()
		header.Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		header.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		header.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

		if !allowed {
			retryAfter := int(math.Ceil(info.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			header.Set("Retry-After", strconv.Itoa(retryAfter))
			if rt.metrics != nil {
				rt.metrics.RecordRateLimited(rt.service, endpoint)
			}
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":       "Rate limit exceeded. Please try again later.",
				"status_code": http.StatusTooManyRequests,
				"retry_after": retryAfter,
				"reset_time":  info.ResetAt.Unix(),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
