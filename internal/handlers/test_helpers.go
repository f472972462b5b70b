package handlers

import (
	"context"

	"github.com/natefoster/mailproof/internal/models"
	"github.com/natefoster/mailproof/internal/services"
)

// MockVerificationService implements VerificationServiceInterface for testing
type MockVerificationService struct {
	IssueFunc  func(ctx context.Context, userID, email, firstName, ipAddress string) (*models.VerificationToken, error)
	RedeemFunc func(ctx context.Context, token, ipAddress string) *services.RedeemResult
	StatusFunc func(ctx context.Context, userID string) *models.VerificationStatus
}

func (m *MockVerificationService) Issue(ctx context.Context, userID, email, firstName, ipAddress string) (*models.VerificationToken, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, userID, email, firstName, ipAddress)
	}
	return nil, models.ErrInternalServer
}

func (m *MockVerificationService) Redeem(ctx context.Context, token, ipAddress string) *services.RedeemResult {
	if m.RedeemFunc != nil {
		return m.RedeemFunc(ctx, token, ipAddress)
	}
	return &services.RedeemResult{Status: services.RedeemInternalError}
}

func (m *MockVerificationService) Status(ctx context.Context, userID string) *models.VerificationStatus {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, userID)
	}
	return &models.VerificationStatus{Verified: false}
}

// MockResendService implements ResendServiceInterface for testing
type MockResendService struct {
	ResendFunc func(ctx context.Context, userID, email, firstName, ipAddress string) (*services.ResendResult, error)
}

func (m *MockResendService) Resend(ctx context.Context, userID, email, firstName, ipAddress string) (*services.ResendResult, error) {
	if m.ResendFunc != nil {
		return m.ResendFunc(ctx, userID, email, firstName, ipAddress)
	}
	return &services.ResendResult{Status: services.ResendIssuanceFailed}, models.ErrInternalServer
}
