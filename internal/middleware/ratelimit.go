package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// Throttle caps the overall request rate on a route group. Per-sender SMS
// quotas are enforced separately in the webhook logic; this limiter is a
// backstop against request floods reaching the browser at all.
func Throttle(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
