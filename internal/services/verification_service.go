package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/natefoster/mailproof/internal/models"
	pkglogger "github.com/natefoster/mailproof/pkg/logger"
)

// VerificationTokenRepository defines the interface for token store operations
type VerificationTokenRepository interface {
	Create(ctx context.Context, token *models.VerificationToken) (*models.VerificationToken, error)
	GetByToken(ctx context.Context, token string) (*models.VerificationToken, error)
	Consume(ctx context.Context, token string) error
	RecordAttempt(ctx context.Context, token, ipAddress string) error
	DeletePending(ctx context.Context, userID, email string) (int64, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

// UserRepository defines the interface for user profile operations
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	MarkEmailVerified(ctx context.Context, id string) error
}

// RedeemStatus classifies the outcome of a redemption attempt
type RedeemStatus int

const (
	RedeemVerified RedeemStatus = iota
	RedeemNotFound
	RedeemAlreadyUsed
	RedeemExpired
	RedeemInternalError
)

// String returns the audit/log name of the status
func (s RedeemStatus) String() string {
	switch s {
	case RedeemVerified:
		return "verified"
	case RedeemNotFound:
		return "not_found"
	case RedeemAlreadyUsed:
		return "already_used"
	case RedeemExpired:
		return "expired"
	default:
		return "internal_error"
	}
}

// RedeemResult is the outcome of presenting a token for redemption.
// UserID and Email are populated only when Status is RedeemVerified.
type RedeemResult struct {
	Status RedeemStatus
	UserID string
	Email  string
}

// VerificationService handles issuance, redemption and status of email
// verification tokens
type VerificationService struct {
	tokens   VerificationTokenRepository
	users    UserRepository
	email    EmailService
	logger   *slog.Logger
	audit    *pkglogger.AuditLogger
	tokenTTL time.Duration
}

// NewVerificationService creates a new VerificationService
func NewVerificationService(
	tokens VerificationTokenRepository,
	users UserRepository,
	email EmailService,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
	tokenTTL time.Duration,
) *VerificationService {
	return &VerificationService{
		tokens:   tokens,
		users:    users,
		email:    email,
		logger:   logger,
		audit:    audit,
		tokenTTL: tokenTTL,
	}
}

// Issue creates a fresh verification token for a (user, email) pair and
// dispatches the verification email. Any unused tokens for the same pair
// are invalidated first, so at most one active token exists per pair.
// Invalidation is best-effort: a leftover stale token is still fenced by
// its own used/expiry checks at redemption time.
func (s *VerificationService) Issue(ctx context.Context, userID, email, firstName, ipAddress string) (*models.VerificationToken, error) {
	email = NormalizeEmail(email)

	deleted, err := s.tokens.DeletePending(ctx, userID, email)
	if err != nil {
		s.logger.Warn("failed to invalidate pending tokens",
			slog.String("user_id", userID),
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	} else if deleted > 0 {
		s.logger.Info("invalidated pending tokens",
			slog.String("user_id", userID),
			slog.Int64("count", deleted))
	}

	token := &models.VerificationToken{
		Token:     GenerateToken(),
		UserID:    userID,
		Email:     email,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	}
	if ipAddress != "" {
		token.IPAddress = &ipAddress
	}

	created, err := s.tokens.Create(ctx, token)
	if err != nil {
		s.logger.Error("failed to create verification token",
			slog.String("user_id", userID),
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		s.audit.LogVerificationEvent(pkglogger.VerificationEvent{
			EventType: "issue", UserID: userID, Email: email, IPAddress: ipAddress,
			Success: false, Outcome: "issuance_failed",
		})
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	if err := s.email.SendVerificationEmail(ctx, email, firstName, created.Token, created.ExpiresAt); err != nil {
		s.logger.Error("failed to send verification email",
			slog.String("user_id", userID),
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", models.ErrEmailSend, err)
	}

	s.logger.Info("verification token issued",
		slog.String("user_id", userID),
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.String("token", pkglogger.SanitizedToken(created.Token)),
		slog.Time("expires_at", created.ExpiresAt))
	s.audit.LogVerificationEvent(pkglogger.VerificationEvent{
		EventType: "issue", UserID: userID, Email: email, IPAddress: ipAddress,
		Success: true, Outcome: "issued",
	})

	return created, nil
}

// Redeem validates a presented token and, on success, flips the user's
// verified flag. A token is consumed on its first redemption attempt,
// whether it succeeds or fails due to expiry.
func (s *VerificationService) Redeem(ctx context.Context, plainToken, ipAddress string) *RedeemResult {
	if plainToken == "" {
		return &RedeemResult{Status: RedeemNotFound}
	}

	token, err := s.tokens.GetByToken(ctx, plainToken)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("verification token not found",
				slog.String("token", pkglogger.SanitizedToken(plainToken)))
			return &RedeemResult{Status: RedeemNotFound}
		}
		s.logger.Error("failed to retrieve verification token", slog.Any("error", err))
		return &RedeemResult{Status: RedeemInternalError}
	}

	if token.IsUsed() {
		s.logger.Warn("attempt to reuse verification token",
			slog.String("token", pkglogger.SanitizedToken(plainToken)),
			slog.String("user_id", token.UserID))
		s.auditRedeem(token, ipAddress, RedeemAlreadyUsed)
		return &RedeemResult{Status: RedeemAlreadyUsed}
	}

	if token.IsExpired() {
		// Consume the expired token so later attempts land on the
		// unambiguous already-used branch instead of re-reporting expiry
		// against stale state.
		if err := s.tokens.Consume(ctx, plainToken); err != nil && !errors.Is(err, models.ErrTokenUsed) {
			s.logger.Warn("failed to consume expired token", slog.Any("error", err))
		}
		s.logger.Info("verification token expired",
			slog.String("token", pkglogger.SanitizedToken(plainToken)),
			slog.Time("expires_at", token.ExpiresAt))
		s.auditRedeem(token, ipAddress, RedeemExpired)
		return &RedeemResult{Status: RedeemExpired}
	}

	// Diagnostic metadata only; redemption proceeds if this write fails.
	if err := s.tokens.RecordAttempt(ctx, plainToken, ipAddress); err != nil {
		s.logger.Warn("failed to record redemption attempt", slog.Any("error", err))
	}

	// Single-use boundary: the conditional consume serializes concurrent
	// redeemers, so exactly one caller proceeds past this point.
	if err := s.tokens.Consume(ctx, plainToken); err != nil {
		if errors.Is(err, models.ErrTokenUsed) {
			s.auditRedeem(token, ipAddress, RedeemAlreadyUsed)
			return &RedeemResult{Status: RedeemAlreadyUsed}
		}
		if errors.Is(err, models.ErrNotFound) {
			return &RedeemResult{Status: RedeemNotFound}
		}
		s.logger.Error("failed to consume verification token", slog.Any("error", err))
		return &RedeemResult{Status: RedeemInternalError}
	}

	if err := s.users.MarkEmailVerified(ctx, token.UserID); err != nil {
		// The token is consumed but the profile flag is not set. The
		// profile update is idempotent, so this is recoverable by an
		// operator retry; it must not be auto-retried into a second
		// confirmation email.
		s.logger.Error("token consumed but profile update failed",
			slog.String("user_id", token.UserID),
			slog.String("email", pkglogger.SanitizedEmail(token.Email)),
			slog.Any("error", err))
		return &RedeemResult{Status: RedeemInternalError}
	}

	s.logger.Info("email verified",
		slog.String("user_id", token.UserID),
		slog.String("email", pkglogger.SanitizedEmail(token.Email)))
	s.auditRedeem(token, ipAddress, RedeemVerified)

	// Confirmation is a courtesy; verification already succeeded and is
	// authoritative regardless of delivery.
	s.sendConfirmation(ctx, token)

	return &RedeemResult{
		Status: RedeemVerified,
		UserID: token.UserID,
		Email:  token.Email,
	}
}

func (s *VerificationService) sendConfirmation(ctx context.Context, token *models.VerificationToken) {
	firstName := ""
	if user, err := s.users.GetByID(ctx, token.UserID); err == nil {
		firstName = user.FirstName
	}

	if err := s.email.SendVerifiedConfirmationEmail(ctx, token.Email, firstName); err != nil {
		s.logger.Warn("failed to send verified confirmation email",
			slog.String("user_id", token.UserID),
			slog.String("email", pkglogger.SanitizedEmail(token.Email)),
			slog.Any("error", err))
	}
}

func (s *VerificationService) auditRedeem(token *models.VerificationToken, ipAddress string, status RedeemStatus) {
	s.audit.LogVerificationEvent(pkglogger.VerificationEvent{
		EventType: "redeem",
		UserID:    token.UserID,
		Email:     token.Email,
		IPAddress: ipAddress,
		Success:   status == RedeemVerified,
		Outcome:   status.String(),
	})
}

// IsVerified reports whether the user's email is verified. Fail-closed:
// any persistence error reads as unverified rather than falsely granting
// verified status.
func (s *VerificationService) IsVerified(ctx context.Context, userID string) bool {
	return s.Status(ctx, userID).Verified
}

// Status returns the user's verification state, fail-closed on errors
func (s *VerificationService) Status(ctx context.Context, userID string) *models.VerificationStatus {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to read verification status",
				slog.String("user_id", userID),
				slog.Any("error", err))
		}
		return &models.VerificationStatus{Verified: false}
	}

	return &models.VerificationStatus{
		Verified:   user.EmailVerified,
		VerifiedAt: user.EmailVerifiedAt,
	}
}

// CleanupExpired removes tokens whose expiry is long past; called by the
// background cleanup manager
func (s *VerificationService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.tokens.CleanupExpired(ctx)
}
