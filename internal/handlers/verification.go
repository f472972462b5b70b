package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/natefoster/mailproof/internal/auth"
	"github.com/natefoster/mailproof/internal/models"
	"github.com/natefoster/mailproof/internal/services"
	pkghttp "github.com/natefoster/mailproof/pkg/http"
)

// VerificationServiceInterface defines the interface for verification business logic
type VerificationServiceInterface interface {
	Issue(ctx context.Context, userID, email, firstName, ipAddress string) (*models.VerificationToken, error)
	Redeem(ctx context.Context, token, ipAddress string) *services.RedeemResult
	Status(ctx context.Context, userID string) *models.VerificationStatus
}

// ResendServiceInterface defines the interface for the resend controller
type ResendServiceInterface interface {
	Resend(ctx context.Context, userID, email, firstName, ipAddress string) (*services.ResendResult, error)
}

// VerificationHandler handles verification-related HTTP requests
type VerificationHandler struct {
	verification VerificationServiceInterface
	resend       ResendServiceInterface
	ipConfig     *pkghttp.IPConfig
}

// NewVerificationHandler creates a new VerificationHandler
func NewVerificationHandler(
	verification VerificationServiceInterface,
	resend ResendServiceInterface,
	ipConfig *pkghttp.IPConfig,
) *VerificationHandler {
	return &VerificationHandler{
		verification: verification,
		resend:       resend,
		ipConfig:     ipConfig,
	}
}

// Request DTOs

// SendVerificationRequest represents the request body for sending a verification email
type SendVerificationRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"max=100"`
}

// Response DTOs

// SendVerificationResponse is returned when a verification email was dispatched
type SendVerificationResponse struct {
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedeemResponse is returned on successful redemption
type RedeemResponse struct {
	Status string `json:"status"`
	Email  string `json:"email"`
}

// RateLimitedResponse carries the computed retry-after time
type RateLimitedResponse struct {
	Error      string    `json:"error"`
	Message    string    `json:"message"`
	RetryAfter time.Time `json:"retry_after"`
}

// SendVerification handles POST /auth/send-verification
func (h *VerificationHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req SendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}

	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	token, err := h.verification.Issue(r.Context(), claims.UserID, req.Email, req.FirstName, ipAddress)
	if err != nil {
		pkghttp.WriteInternalError(w, "could not send verification email, please try again later")
		return
	}

	pkghttp.WriteJSON(w, http.StatusAccepted, SendVerificationResponse{
		Status:    "sent",
		ExpiresAt: token.ExpiresAt,
	})
}

// ResendVerification handles POST /auth/resend-verification
func (h *VerificationHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req SendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}

	if err := ValidateRequest(&req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	result, err := h.resend.Resend(r.Context(), claims.UserID, req.Email, req.FirstName, ipAddress)

	switch result.Status {
	case services.ResendRateLimited:
		w.Header().Set("Retry-After", result.RetryAfter.UTC().Format(http.TimeFormat))
		pkghttp.WriteJSON(w, http.StatusTooManyRequests, RateLimitedResponse{
			Error:      "rate_limit_exceeded",
			Message:    "too many resend attempts, please wait before trying again",
			RetryAfter: result.RetryAfter,
		})
	case services.ResendIssuanceFailed:
		_ = err // already logged with context inside the service
		pkghttp.WriteInternalError(w, "could not send verification email, please try again later")
	default:
		pkghttp.WriteJSON(w, http.StatusAccepted, SendVerificationResponse{
			Status:    "sent",
			ExpiresAt: result.ExpiresAt,
		})
	}
}

// RedeemToken handles GET /verify-email?token=...
func (h *VerificationHandler) RedeemToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if err := ValidateTokenParam(token); err != nil {
		pkghttp.WriteBadRequest(w, "invalid verification link")
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	result := h.verification.Redeem(r.Context(), token, ipAddress)

	switch result.Status {
	case services.RedeemVerified:
		pkghttp.WriteJSON(w, http.StatusOK, RedeemResponse{
			Status: "verified",
			Email:  result.Email,
		})
	case services.RedeemNotFound:
		pkghttp.WriteBadRequest(w, "invalid verification link")
	case services.RedeemAlreadyUsed:
		pkghttp.WriteConflict(w, "this verification link was already used, please sign in")
	case services.RedeemExpired:
		pkghttp.WriteGone(w, "this verification link has expired, please request a new one")
	default:
		pkghttp.WriteInternalError(w, "could not verify email, please try again later")
	}
}

// VerificationStatus handles GET /auth/verification-status
func (h *VerificationHandler) VerificationStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	status := h.verification.Status(r.Context(), claims.UserID)
	pkghttp.WriteJSON(w, http.StatusOK, status)
}
