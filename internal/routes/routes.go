package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/natefoster/mailproof/internal/auth"
	"github.com/natefoster/mailproof/internal/handlers"
	"github.com/natefoster/mailproof/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	verificationHandler *handlers.VerificationHandler,
	tokenManager *auth.TokenManager,
) {
	// Public: the emailed link lands here. Per-IP limited against noise
	// and scanning; the token itself is the authorization.
	router.With(middleware.RateLimitByIP(middleware.DefaultRedeemRateLimit())).
		Get("/verify-email", verificationHandler.RedeemToken)

	// Authenticated routes
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager))

		r.Post("/auth/send-verification", verificationHandler.SendVerification)
		r.With(middleware.RateLimitByIP(middleware.DefaultResendRateLimit())).
			Post("/auth/resend-verification", verificationHandler.ResendVerification)
		r.Get("/auth/verification-status", verificationHandler.VerificationStatus)
	})
}
