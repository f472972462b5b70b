package integration

import (
	"context"
	"testing"
	"time"

	"github.com/natefoster/mailproof/internal/database"
	"github.com/natefoster/mailproof/internal/models"
	"github.com/natefoster/mailproof/internal/repositories"
	"github.com/natefoster/mailproof/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepos(t *testing.T) (*TestDB, *repositories.VerificationTokenRepository, *repositories.ResendLimitRepository, *repositories.UserRepository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Teardown(context.Background()) })

	db := &database.DB{Pool: testDB.Pool}
	return testDB,
		repositories.NewVerificationTokenRepository(db),
		repositories.NewResendLimitRepository(db),
		repositories.NewUserRepository(db)
}

func TestVerificationTokenRepository_RoundTrip(t *testing.T) {
	testDB, tokens, _, _ := setupRepos(t)
	ctx := context.Background()
	require.NoError(t, testDB.SeedUser(ctx, "u1", "a@example.com", "Ann"))

	raw := services.GenerateToken()
	created, err := tokens.Create(ctx, &models.VerificationToken{
		Token:     raw,
		UserID:    "u1",
		Email:     "a@example.com",
		ExpiresAt: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, raw, created.Token)
	assert.False(t, created.IsUsed())
	assert.Equal(t, 0, created.Attempts)

	fetched, err := tokens.GetByToken(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", fetched.UserID)
	assert.Equal(t, "a@example.com", fetched.Email)

	_, err = tokens.GetByToken(ctx, services.GenerateToken())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestVerificationTokenRepository_ConsumeIsSingleUse(t *testing.T) {
	testDB, tokens, _, _ := setupRepos(t)
	ctx := context.Background()
	require.NoError(t, testDB.SeedUser(ctx, "u1", "a@example.com", "Ann"))

	raw := services.GenerateToken()
	_, err := tokens.Create(ctx, &models.VerificationToken{
		Token: raw, UserID: "u1", Email: "a@example.com",
		ExpiresAt: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)

	// First consume wins.
	require.NoError(t, tokens.Consume(ctx, raw))

	fetched, err := tokens.GetByToken(ctx, raw)
	require.NoError(t, err)
	assert.True(t, fetched.IsUsed())

	// Second consume loses the conditional update.
	assert.ErrorIs(t, tokens.Consume(ctx, raw), models.ErrTokenUsed)

	// Unknown token is distinguishable from a used one.
	assert.ErrorIs(t, tokens.Consume(ctx, services.GenerateToken()), models.ErrNotFound)
}

func TestVerificationTokenRepository_RecordAttempt(t *testing.T) {
	testDB, tokens, _, _ := setupRepos(t)
	ctx := context.Background()
	require.NoError(t, testDB.SeedUser(ctx, "u1", "a@example.com", "Ann"))

	raw := services.GenerateToken()
	_, err := tokens.Create(ctx, &models.VerificationToken{
		Token: raw, UserID: "u1", Email: "a@example.com",
		ExpiresAt: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, tokens.RecordAttempt(ctx, raw, "203.0.113.9"))
	require.NoError(t, tokens.RecordAttempt(ctx, raw, ""))

	fetched, err := tokens.GetByToken(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, 2, fetched.Attempts)
	require.NotNil(t, fetched.LastAttemptAt)
	require.NotNil(t, fetched.IPAddress)
	// An empty follow-up must not wipe the recorded address.
	assert.Equal(t, "203.0.113.9", *fetched.IPAddress)
}

func TestVerificationTokenRepository_DeletePending(t *testing.T) {
	testDB, tokens, _, _ := setupRepos(t)
	ctx := context.Background()
	require.NoError(t, testDB.SeedUser(ctx, "u1", "a@example.com", "Ann"))
	require.NoError(t, testDB.SeedUser(ctx, "u2", "b@example.com", "Bob"))

	expiry := time.Now().Add(48 * time.Hour)

	pending := services.GenerateToken()
	used := services.GenerateToken()
	otherUser := services.GenerateToken()

	for _, seed := range []*models.VerificationToken{
		{Token: pending, UserID: "u1", Email: "a@example.com", ExpiresAt: expiry},
		{Token: used, UserID: "u1", Email: "a@example.com", ExpiresAt: expiry},
		{Token: otherUser, UserID: "u2", Email: "b@example.com", ExpiresAt: expiry},
	} {
		_, err := tokens.Create(ctx, seed)
		require.NoError(t, err)
	}
	require.NoError(t, tokens.Consume(ctx, used))

	deleted, err := tokens.DeletePending(ctx, "u1", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted, "only the unused token for the pair is deleted")

	_, err = tokens.GetByToken(ctx, pending)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// The consumed token survives for audit; the other user's is untouched.
	_, err = tokens.GetByToken(ctx, used)
	assert.NoError(t, err)
	_, err = tokens.GetByToken(ctx, otherUser)
	assert.NoError(t, err)
}

func TestResendLimitRepository_WindowLifecycle(t *testing.T) {
	testDB, _, limits, _ := setupRepos(t)
	ctx := context.Background()
	require.NoError(t, testDB.SeedUser(ctx, "u1", "a@example.com", "Ann"))

	_, err := limits.Get(ctx, "u1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	anchor := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, limits.StartWindow(ctx, "u1", anchor))

	limit, err := limits.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, limit.Count)
	assert.WithinDuration(t, anchor, limit.FirstResend, time.Second)

	require.NoError(t, limits.Increment(ctx, "u1", anchor.Add(10*time.Minute)))
	require.NoError(t, limits.Increment(ctx, "u1", anchor.Add(20*time.Minute)))

	limit, err = limits.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, limit.Count)
	assert.WithinDuration(t, anchor, limit.FirstResend, time.Second, "anchor must not move on increment")

	// Window rollover: the upsert path resets the existing row.
	newAnchor := anchor.Add(2 * time.Hour)
	require.NoError(t, limits.StartWindow(ctx, "u1", newAnchor))

	limit, err = limits.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, limit.Count)
	assert.WithinDuration(t, newAnchor, limit.FirstResend, time.Second)
}

func TestUserRepository_MarkEmailVerified(t *testing.T) {
	testDB, _, _, users := setupRepos(t)
	ctx := context.Background()
	require.NoError(t, testDB.SeedUser(ctx, "u1", "a@example.com", "Ann"))

	user, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, user.EmailVerified)

	require.NoError(t, users.MarkEmailVerified(ctx, "u1"))

	user, err = users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
	require.NotNil(t, user.EmailVerifiedAt)
	firstVerifiedAt := *user.EmailVerifiedAt

	// Idempotent: a retry keeps the original timestamp.
	require.NoError(t, users.MarkEmailVerified(ctx, "u1"))

	user, err = users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, firstVerifiedAt, *user.EmailVerifiedAt)

	assert.ErrorIs(t, users.MarkEmailVerified(ctx, "missing"), models.ErrNotFound)
}
