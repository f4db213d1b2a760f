package httpapi

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

// AuthMiddleware validates the Authorization header against the configured
// API token.
// If the token is missing or invalid, it responds 401 Unauthorized.
// If valid, it calls the next handler with the original request.
func AuthMiddleware(validToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")
			if token == "" {
				respondError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if token != validToken {
				respondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware applies a global request rate limit
func RateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				slog.Warn("rate limit exceeded", "path", r.URL.Path)
				respondError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
