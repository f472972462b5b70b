package logger

import (
	"context"
	"log/slog"
	"time"
)

// VerificationEvent represents an auditable verification action
type VerificationEvent struct {
	EventType string // "issue", "redeem", "resend"
	UserID    string
	Email     string
	IPAddress string
	Success   bool
	Outcome   string // e.g. "verified", "expired", "rate_limited"
}

// AuditLogger emits structured audit records for verification actions.
// Emails are masked before logging; raw tokens never reach the logger.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogVerificationEvent logs one verification action
func (al *AuditLogger) LogVerificationEvent(event VerificationEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "email_verification"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.Outcome != "" {
		attrs = append(attrs, slog.String("outcome", event.Outcome))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}

	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}
