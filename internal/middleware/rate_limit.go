package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig holds the transport-level rate limiting configuration.
// This guards the public endpoints against brute force; the per-user
// resend budget is enforced separately inside the resend service.
type RateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultRedeemRateLimit returns the limit for the public redeem endpoint.
// Tokens carry 256 bits of entropy, so this bounds noise and abuse rather
// than guessability.
func DefaultRedeemRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10,
	}
}

// DefaultResendRateLimit returns the limit for the resend endpoint
func DefaultResendRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 5,
	}
}

// RateLimitByIP creates a middleware that rate limits requests by client IP
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Rate limit exceeded"}`))
		}),
	)
}
