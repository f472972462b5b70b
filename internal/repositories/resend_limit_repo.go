package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/natefoster/mailproof/internal/database"
	"github.com/natefoster/mailproof/internal/models"
)

// ResendLimitRepository handles the per-user resend counter records
type ResendLimitRepository struct {
	db *database.DB
}

// NewResendLimitRepository creates a new ResendLimitRepository
func NewResendLimitRepository(db *database.DB) *ResendLimitRepository {
	return &ResendLimitRepository{db: db}
}

// Get retrieves the resend counter for a user. Returns ErrNotFound if the
// user has never resent.
func (r *ResendLimitRepository) Get(ctx context.Context, userID string) (*models.ResendLimit, error) {
	query := `
		SELECT user_id, count, first_resend, last_resend
		FROM resend_limits
		WHERE user_id = $1
	`

	var limit models.ResendLimit
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(
		&limit.UserID, &limit.Count, &limit.FirstResend, &limit.LastResend,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &limit, nil
}

// StartWindow resets the counter to 1 with a fresh window anchor. Upserts
// so the first resend for a user and a window rollover share one path.
func (r *ResendLimitRepository) StartWindow(ctx context.Context, userID string, now time.Time) error {
	query := `
		INSERT INTO resend_limits (user_id, count, first_resend, last_resend)
		VALUES ($1, 1, $2, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET count = 1, first_resend = $2, last_resend = $2
	`

	if _, err := r.db.Pool.Exec(ctx, query, userID, now); err != nil {
		return fmt.Errorf("failed to start resend window: %w", err)
	}

	return nil
}

// Increment bumps the counter inside the current window
func (r *ResendLimitRepository) Increment(ctx context.Context, userID string, now time.Time) error {
	query := `
		UPDATE resend_limits
		SET count = count + 1, last_resend = $2
		WHERE user_id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, userID, now)
	if err != nil {
		return fmt.Errorf("failed to increment resend counter: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
