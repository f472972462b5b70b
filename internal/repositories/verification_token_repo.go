package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/natefoster/mailproof/internal/database"
	"github.com/natefoster/mailproof/internal/models"
)

// VerificationTokenRepository handles verification token data access.
// The raw token string is the primary key; there is no surrogate ID.
type VerificationTokenRepository struct {
	db *database.DB
}

// NewVerificationTokenRepository creates a new VerificationTokenRepository
func NewVerificationTokenRepository(db *database.DB) *VerificationTokenRepository {
	return &VerificationTokenRepository{db: db}
}

// scanTokenRow handles nullable fields and populates a VerificationToken from a database row
func scanTokenRow(row rowScanner) (*models.VerificationToken, error) {
	var token models.VerificationToken
	var usedAt, lastAttemptAt *time.Time
	var ipAddress *string

	err := row.Scan(
		&token.Token, &token.UserID, &token.Email,
		&token.CreatedAt, &token.ExpiresAt, &usedAt,
		&token.Attempts, &lastAttemptAt, &ipAddress,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	token.UsedAt = usedAt
	token.LastAttemptAt = lastAttemptAt
	token.IPAddress = ipAddress
	return &token, nil
}

// Create persists a new verification token record
func (r *VerificationTokenRepository) Create(ctx context.Context, token *models.VerificationToken) (*models.VerificationToken, error) {
	query := `
		INSERT INTO verification_tokens (token, user_id, email, expires_at, ip_address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING token, user_id, email, created_at, expires_at, used_at, attempts, last_attempt_at, ip_address
	`

	created, err := scanTokenRow(r.db.Pool.QueryRow(ctx, query,
		token.Token, token.UserID, token.Email, token.ExpiresAt, token.IPAddress))
	if err != nil {
		return nil, fmt.Errorf("failed to create verification token: %w", err)
	}

	return created, nil
}

// GetByToken retrieves a token record by the raw token string
func (r *VerificationTokenRepository) GetByToken(ctx context.Context, token string) (*models.VerificationToken, error) {
	query := `
		SELECT token, user_id, email, created_at, expires_at, used_at, attempts, last_attempt_at, ip_address
		FROM verification_tokens
		WHERE token = $1
	`

	return scanTokenRow(r.db.Pool.QueryRow(ctx, query, token))
}

// Consume marks a token as used, but only if it is still unused. This is
// the single-use boundary: the conditional update serializes concurrent
// redeemers, so exactly one caller observes success. Returns ErrTokenUsed
// if another redemption already landed, ErrNotFound if the token does not
// exist.
func (r *VerificationTokenRepository) Consume(ctx context.Context, token string) error {
	query := `
		UPDATE verification_tokens
		SET used_at = NOW()
		WHERE token = $1 AND used_at IS NULL
	`

	result, err := r.db.Pool.Exec(ctx, query, token)
	if err != nil {
		return fmt.Errorf("failed to consume verification token: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.db.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM verification_tokens WHERE token = $1)`, token,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check verification token: %w", err)
		}
		if exists {
			return models.ErrTokenUsed
		}
		return models.ErrNotFound
	}

	return nil
}

// RecordAttempt increments the redemption attempt counter and stores
// best-effort diagnostic metadata
func (r *VerificationTokenRepository) RecordAttempt(ctx context.Context, token, ipAddress string) error {
	query := `
		UPDATE verification_tokens
		SET attempts = attempts + 1,
		    last_attempt_at = NOW(),
		    ip_address = COALESCE(NULLIF($2, ''), ip_address)
		WHERE token = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, token, ipAddress)
	if err != nil {
		return fmt.Errorf("failed to record redemption attempt: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DeletePending deletes all unused tokens for a (user, email) pair.
// Called before issuing a new token so at most one active token exists
// per pair.
func (r *VerificationTokenRepository) DeletePending(ctx context.Context, userID, email string) (int64, error) {
	query := `
		DELETE FROM verification_tokens
		WHERE user_id = $1 AND email = $2 AND used_at IS NULL
	`

	result, err := r.db.Pool.Exec(ctx, query, userID, email)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pending tokens: %w", err)
	}

	return result.RowsAffected(), nil
}

// CleanupExpired deletes tokens that expired more than 30 days ago
func (r *VerificationTokenRepository) CleanupExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM verification_tokens
		WHERE expires_at < NOW() - INTERVAL '30 days'
	`

	result, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired tokens: %w", err)
	}

	return result.RowsAffected(), nil
}
