package models

import (
	"time"
)

// VerificationToken represents one issued, possibly-redeemed email
// verification attempt. The token string itself is the primary key and
// the capability: possession of it authorizes redemption.
type VerificationToken struct {
	Token         string     `json:"-"` // Never expose the raw token
	UserID        string     `json:"user_id"`
	Email         string     `json:"email"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
	Attempts      int        `json:"attempts"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	IPAddress     *string    `json:"-"`
}

// IsExpired checks if the token has expired
func (t *VerificationToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsUsed checks if the token has already been consumed
func (t *VerificationToken) IsUsed() bool {
	return t.UsedAt != nil
}

// IsValid checks if the token is still redeemable (not expired and not used)
func (t *VerificationToken) IsValid() bool {
	return !t.IsExpired() && !t.IsUsed()
}
