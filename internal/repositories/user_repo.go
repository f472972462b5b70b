package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/natefoster/mailproof/internal/database"
	"github.com/natefoster/mailproof/internal/models"
)

// UserRepository reads and mutates the verification fields of user
// profile records. Account lifecycle is owned elsewhere.
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, first_name, email_verified, email_verified_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	var verifiedAt *time.Time
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.FirstName,
		&user.EmailVerified, &verifiedAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	user.EmailVerifiedAt = verifiedAt
	return &user, nil
}

// MarkEmailVerified sets the verified flag on a user profile. The update
// is idempotent: re-running it after a partial redemption leaves the same
// state, so it is safe for operators to retry.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET email_verified = TRUE,
		    email_verified_at = COALESCE(email_verified_at, NOW()),
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
