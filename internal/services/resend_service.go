package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/natefoster/mailproof/internal/models"
	pkglogger "github.com/natefoster/mailproof/pkg/logger"
)

// ResendLimitRepository defines the interface for the resend counter store
type ResendLimitRepository interface {
	Get(ctx context.Context, userID string) (*models.ResendLimit, error)
	StartWindow(ctx context.Context, userID string, now time.Time) error
	Increment(ctx context.Context, userID string, now time.Time) error
}

// Issuer is the slice of VerificationService the resend controller needs
type Issuer interface {
	Issue(ctx context.Context, userID, email, firstName, ipAddress string) (*models.VerificationToken, error)
}

// ResendStatus classifies the outcome of a resend request
type ResendStatus int

const (
	ResendSent ResendStatus = iota
	ResendRateLimited
	ResendIssuanceFailed
)

// ResendResult is the outcome of a resend request. RetryAfter is set only
// when Status is ResendRateLimited; ExpiresAt only when ResendSent.
type ResendResult struct {
	Status     ResendStatus
	RetryAfter time.Time
	ExpiresAt  time.Time
}

// ResendConfig holds the resend abuse bounds: at most MaxAttempts resends
// inside a fixed window anchored at the first resend. Fixed, not sliding:
// up to 2x the nominal rate is possible across a window boundary, an
// accepted simplification.
type ResendConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// ResendService wraps the issuer with the per-user resend rate limit
type ResendService struct {
	limits ResendLimitRepository
	issuer Issuer
	config ResendConfig
	logger *slog.Logger
	audit  *pkglogger.AuditLogger
}

// NewResendService creates a new ResendService
func NewResendService(
	limits ResendLimitRepository,
	issuer Issuer,
	config ResendConfig,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *ResendService {
	return &ResendService{
		limits: limits,
		issuer: issuer,
		config: config,
		logger: logger,
		audit:  audit,
	}
}

// Resend issues and sends a fresh verification token, bounded to
// MaxAttempts per window. Counter bookkeeping happens before issuance, so
// a failed send still consumes a resend slot; this keeps a failing mail
// provider from turning into an unbounded retry storm.
func (s *ResendService) Resend(ctx context.Context, userID, email, firstName, ipAddress string) (*ResendResult, error) {
	now := time.Now()

	limit, err := s.limits.Get(ctx, userID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		// Fail open: a limiter-store fault should not block legitimate
		// users from verifying their address.
		s.logger.Error("failed to load resend counter, allowing resend",
			slog.String("user_id", userID),
			slog.Any("error", err))
		limit = nil
	}

	if limit != nil && !limit.WindowExpired(now, s.config.Window) {
		if limit.Count >= s.config.MaxAttempts {
			retryAfter := limit.FirstResend.Add(s.config.Window)
			s.logger.Warn("resend rate limited",
				slog.String("user_id", userID),
				slog.Int("count", limit.Count),
				slog.Time("retry_after", retryAfter))
			s.audit.LogVerificationEvent(pkglogger.VerificationEvent{
				EventType: "resend", UserID: userID, Email: email, IPAddress: ipAddress,
				Success: false, Outcome: "rate_limited",
			})
			return &ResendResult{Status: ResendRateLimited, RetryAfter: retryAfter}, nil
		}

		if err := s.limits.Increment(ctx, userID, now); err != nil {
			s.logger.Warn("failed to increment resend counter",
				slog.String("user_id", userID),
				slog.Any("error", err))
		}
	} else {
		// First resend ever, or the window lapsed: anchor a new window.
		if err := s.limits.StartWindow(ctx, userID, now); err != nil {
			s.logger.Warn("failed to start resend window",
				slog.String("user_id", userID),
				slog.Any("error", err))
		}
	}

	token, err := s.issuer.Issue(ctx, userID, email, firstName, ipAddress)
	if err != nil {
		return &ResendResult{Status: ResendIssuanceFailed}, err
	}

	s.audit.LogVerificationEvent(pkglogger.VerificationEvent{
		EventType: "resend", UserID: userID, Email: email, IPAddress: ipAddress,
		Success: true, Outcome: "sent",
	})

	return &ResendResult{Status: ResendSent, ExpiresAt: token.ExpiresAt}, nil
}
