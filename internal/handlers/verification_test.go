package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/natefoster/mailproof/internal/auth"
	"github.com/natefoster/mailproof/internal/models"
	"github.com/natefoster/mailproof/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validToken = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func authedRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	claims := &auth.Claims{UserID: "u1", Email: "a@example.com"}
	ctx := context.WithValue(r.Context(), auth.ClaimsContextKey, claims)
	return r.WithContext(ctx)
}

func TestRedeemToken_Verified(t *testing.T) {
	verification := &MockVerificationService{
		RedeemFunc: func(ctx context.Context, token, ipAddress string) *services.RedeemResult {
			assert.Equal(t, validToken, token)
			return &services.RedeemResult{Status: services.RedeemVerified, UserID: "u1", Email: "a@example.com"}
		},
	}
	h := NewVerificationHandler(verification, &MockResendService{}, nil)

	r := httptest.NewRequest("GET", "/verify-email?token="+validToken, nil)
	rec := httptest.NewRecorder()
	h.RedeemToken(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body RedeemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "verified", body.Status)
	assert.Equal(t, "a@example.com", body.Email)
}

func TestRedeemToken_OutcomeStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		status     services.RedeemStatus
		wantStatus int
	}{
		{"not found", services.RedeemNotFound, http.StatusBadRequest},
		{"already used", services.RedeemAlreadyUsed, http.StatusConflict},
		{"expired", services.RedeemExpired, http.StatusGone},
		{"internal error", services.RedeemInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verification := &MockVerificationService{
				RedeemFunc: func(ctx context.Context, token, ipAddress string) *services.RedeemResult {
					return &services.RedeemResult{Status: tt.status}
				},
			}
			h := NewVerificationHandler(verification, &MockResendService{}, nil)

			r := httptest.NewRequest("GET", "/verify-email?token="+validToken, nil)
			rec := httptest.NewRecorder()
			h.RedeemToken(rec, r)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRedeemToken_MalformedToken(t *testing.T) {
	h := NewVerificationHandler(&MockVerificationService{
		RedeemFunc: func(ctx context.Context, token, ipAddress string) *services.RedeemResult {
			t.Fatal("service should not be called for a malformed token")
			return nil
		},
	}, &MockResendService{}, nil)

	for _, token := range []string{"", "short", strings.Repeat("g", 64), validToken + "ff"} {
		r := httptest.NewRequest("GET", "/verify-email?token="+token, nil)
		rec := httptest.NewRecorder()
		h.RedeemToken(rec, r)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "token %q", token)
	}
}

func TestSendVerification_Success(t *testing.T) {
	expiresAt := time.Now().Add(48 * time.Hour)
	verification := &MockVerificationService{
		IssueFunc: func(ctx context.Context, userID, email, firstName, ipAddress string) (*models.VerificationToken, error) {
			assert.Equal(t, "u1", userID)
			assert.Equal(t, "a@example.com", email)
			return &models.VerificationToken{Token: validToken, UserID: userID, Email: email, ExpiresAt: expiresAt}, nil
		},
	}
	h := NewVerificationHandler(verification, &MockResendService{}, nil)

	r := authedRequest("POST", "/auth/send-verification", `{"email":"a@example.com","first_name":"Ann"}`)
	rec := httptest.NewRecorder()
	h.SendVerification(rec, r)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestSendVerification_RequiresAuth(t *testing.T) {
	h := NewVerificationHandler(&MockVerificationService{}, &MockResendService{}, nil)

	r := httptest.NewRequest("POST", "/auth/send-verification", strings.NewReader(`{"email":"a@example.com"}`))
	rec := httptest.NewRecorder()
	h.SendVerification(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendVerification_InvalidBody(t *testing.T) {
	h := NewVerificationHandler(&MockVerificationService{}, &MockResendService{}, nil)

	tests := []string{
		`not json`,
		`{"email":"not-an-email"}`,
		`{}`,
	}

	for _, body := range tests {
		r := authedRequest("POST", "/auth/send-verification", body)
		rec := httptest.NewRecorder()
		h.SendVerification(rec, r)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestResendVerification_Sent(t *testing.T) {
	resend := &MockResendService{
		ResendFunc: func(ctx context.Context, userID, email, firstName, ipAddress string) (*services.ResendResult, error) {
			return &services.ResendResult{Status: services.ResendSent, ExpiresAt: time.Now().Add(48 * time.Hour)}, nil
		},
	}
	h := NewVerificationHandler(&MockVerificationService{}, resend, nil)

	r := authedRequest("POST", "/auth/resend-verification", `{"email":"a@example.com","first_name":"Ann"}`)
	rec := httptest.NewRecorder()
	h.ResendVerification(rec, r)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestResendVerification_RateLimited(t *testing.T) {
	retryAfter := time.Now().Add(20 * time.Minute)
	resend := &MockResendService{
		ResendFunc: func(ctx context.Context, userID, email, firstName, ipAddress string) (*services.ResendResult, error) {
			return &services.ResendResult{Status: services.ResendRateLimited, RetryAfter: retryAfter}, nil
		},
	}
	h := NewVerificationHandler(&MockVerificationService{}, resend, nil)

	r := authedRequest("POST", "/auth/resend-verification", `{"email":"a@example.com"}`)
	rec := httptest.NewRecorder()
	h.ResendVerification(rec, r)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body RateLimitedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.WithinDuration(t, retryAfter, body.RetryAfter, time.Second)
}

func TestResendVerification_IssuanceFailed(t *testing.T) {
	resend := &MockResendService{
		ResendFunc: func(ctx context.Context, userID, email, firstName, ipAddress string) (*services.ResendResult, error) {
			return &services.ResendResult{Status: services.ResendIssuanceFailed}, models.ErrInternalServer
		},
	}
	h := NewVerificationHandler(&MockVerificationService{}, resend, nil)

	r := authedRequest("POST", "/auth/resend-verification", `{"email":"a@example.com"}`)
	rec := httptest.NewRecorder()
	h.ResendVerification(rec, r)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestVerificationStatus(t *testing.T) {
	verifiedAt := time.Now().Add(-time.Hour)
	verification := &MockVerificationService{
		StatusFunc: func(ctx context.Context, userID string) *models.VerificationStatus {
			return &models.VerificationStatus{Verified: true, VerifiedAt: &verifiedAt}
		},
	}
	h := NewVerificationHandler(verification, &MockResendService{}, nil)

	r := authedRequest("GET", "/auth/verification-status", "")
	rec := httptest.NewRecorder()
	h.VerificationStatus(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body models.VerificationStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Verified)
}
