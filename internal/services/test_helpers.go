package services

import (
	"context"
	"sync"
	"time"

	"github.com/natefoster/mailproof/internal/models"
)

// MockVerificationTokenRepository implements VerificationTokenRepository for testing
type MockVerificationTokenRepository struct {
	CreateFunc         func(ctx context.Context, token *models.VerificationToken) (*models.VerificationToken, error)
	GetByTokenFunc     func(ctx context.Context, token string) (*models.VerificationToken, error)
	ConsumeFunc        func(ctx context.Context, token string) error
	RecordAttemptFunc  func(ctx context.Context, token, ipAddress string) error
	DeletePendingFunc  func(ctx context.Context, userID, email string) (int64, error)
	CleanupExpiredFunc func(ctx context.Context) (int64, error)
}

func (m *MockVerificationTokenRepository) Create(ctx context.Context, token *models.VerificationToken) (*models.VerificationToken, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, token)
	}
	return token, nil
}

func (m *MockVerificationTokenRepository) GetByToken(ctx context.Context, token string) (*models.VerificationToken, error) {
	if m.GetByTokenFunc != nil {
		return m.GetByTokenFunc(ctx, token)
	}
	return nil, models.ErrNotFound
}

func (m *MockVerificationTokenRepository) Consume(ctx context.Context, token string) error {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, token)
	}
	return nil
}

func (m *MockVerificationTokenRepository) RecordAttempt(ctx context.Context, token, ipAddress string) error {
	if m.RecordAttemptFunc != nil {
		return m.RecordAttemptFunc(ctx, token, ipAddress)
	}
	return nil
}

func (m *MockVerificationTokenRepository) DeletePending(ctx context.Context, userID, email string) (int64, error) {
	if m.DeletePendingFunc != nil {
		return m.DeletePendingFunc(ctx, userID, email)
	}
	return 0, nil
}

func (m *MockVerificationTokenRepository) CleanupExpired(ctx context.Context) (int64, error) {
	if m.CleanupExpiredFunc != nil {
		return m.CleanupExpiredFunc(ctx)
	}
	return 0, nil
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc           func(ctx context.Context, id string) (*models.User, error)
	MarkEmailVerifiedFunc func(ctx context.Context, id string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	if m.MarkEmailVerifiedFunc != nil {
		return m.MarkEmailVerifiedFunc(ctx, id)
	}
	return nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendVerificationEmailFunc         func(ctx context.Context, email, firstName, token string, expiresAt time.Time) error
	SendVerifiedConfirmationEmailFunc func(ctx context.Context, email, firstName string) error
}

func (m *MockEmailService) SendVerificationEmail(ctx context.Context, email, firstName, token string, expiresAt time.Time) error {
	if m.SendVerificationEmailFunc != nil {
		return m.SendVerificationEmailFunc(ctx, email, firstName, token, expiresAt)
	}
	return nil
}

func (m *MockEmailService) SendVerifiedConfirmationEmail(ctx context.Context, email, firstName string) error {
	if m.SendVerifiedConfirmationEmailFunc != nil {
		return m.SendVerifiedConfirmationEmailFunc(ctx, email, firstName)
	}
	return nil
}

// MockResendLimitRepository implements ResendLimitRepository for testing
type MockResendLimitRepository struct {
	GetFunc         func(ctx context.Context, userID string) (*models.ResendLimit, error)
	StartWindowFunc func(ctx context.Context, userID string, now time.Time) error
	IncrementFunc   func(ctx context.Context, userID string, now time.Time) error
}

func (m *MockResendLimitRepository) Get(ctx context.Context, userID string) (*models.ResendLimit, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockResendLimitRepository) StartWindow(ctx context.Context, userID string, now time.Time) error {
	if m.StartWindowFunc != nil {
		return m.StartWindowFunc(ctx, userID, now)
	}
	return nil
}

func (m *MockResendLimitRepository) Increment(ctx context.Context, userID string, now time.Time) error {
	if m.IncrementFunc != nil {
		return m.IncrementFunc(ctx, userID, now)
	}
	return nil
}

// MockIssuer implements Issuer for testing
type MockIssuer struct {
	IssueFunc func(ctx context.Context, userID, email, firstName, ipAddress string) (*models.VerificationToken, error)
}

func (m *MockIssuer) Issue(ctx context.Context, userID, email, firstName, ipAddress string) (*models.VerificationToken, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, userID, email, firstName, ipAddress)
	}
	return nil, models.ErrInternalServer
}

// fakeTokenStore is a stateful in-memory token store for scenario tests
// that need real create/consume/delete semantics rather than canned
// responses.
type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*models.VerificationToken
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]*models.VerificationToken)}
}

func (f *fakeTokenStore) Create(ctx context.Context, token *models.VerificationToken) (*models.VerificationToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *token
	stored.CreatedAt = time.Now()
	f.tokens[token.Token] = &stored
	copied := stored
	return &copied, nil
}

func (f *fakeTokenStore) GetByToken(ctx context.Context, token string) (*models.VerificationToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tokens[token]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeTokenStore) Consume(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tokens[token]
	if !ok {
		return models.ErrNotFound
	}
	if stored.UsedAt != nil {
		return models.ErrTokenUsed
	}
	now := time.Now()
	stored.UsedAt = &now
	return nil
}

func (f *fakeTokenStore) RecordAttempt(ctx context.Context, token, ipAddress string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tokens[token]
	if !ok {
		return models.ErrNotFound
	}
	now := time.Now()
	stored.Attempts++
	stored.LastAttemptAt = &now
	if ipAddress != "" {
		stored.IPAddress = &ipAddress
	}
	return nil
}

func (f *fakeTokenStore) DeletePending(ctx context.Context, userID, email string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for key, stored := range f.tokens {
		if stored.UserID == userID && stored.Email == email && stored.UsedAt == nil {
			delete(f.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeTokenStore) CleanupExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

// fakeUserStore is a stateful in-memory user store for scenario tests
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	store := &fakeUserStore{users: make(map[string]*models.User)}
	for _, user := range users {
		store.users[user.ID] = user
	}
	return store
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) MarkEmailVerified(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return models.ErrNotFound
	}
	user.EmailVerified = true
	if user.EmailVerifiedAt == nil {
		now := time.Now()
		user.EmailVerifiedAt = &now
	}
	return nil
}
