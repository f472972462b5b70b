package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerificationToken_IsExpired(t *testing.T) {
	fresh := &VerificationToken{ExpiresAt: time.Now().Add(48 * time.Hour)}
	assert.False(t, fresh.IsExpired())

	stale := &VerificationToken{ExpiresAt: time.Now().Add(-1 * time.Second)}
	assert.True(t, stale.IsExpired())
}

func TestVerificationToken_IsUsed(t *testing.T) {
	unused := &VerificationToken{}
	assert.False(t, unused.IsUsed())

	now := time.Now()
	used := &VerificationToken{UsedAt: &now}
	assert.True(t, used.IsUsed())
}

func TestVerificationToken_IsValid(t *testing.T) {
	now := time.Now()

	valid := &VerificationToken{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, valid.IsValid())

	expired := &VerificationToken{ExpiresAt: now.Add(-time.Hour)}
	assert.False(t, expired.IsValid())

	used := &VerificationToken{ExpiresAt: now.Add(time.Hour), UsedAt: &now}
	assert.False(t, used.IsValid())
}

func TestResendLimit_WindowExpired(t *testing.T) {
	now := time.Now()
	window := time.Hour

	inside := &ResendLimit{FirstResend: now.Add(-30 * time.Minute)}
	assert.False(t, inside.WindowExpired(now, window))

	boundary := &ResendLimit{FirstResend: now.Add(-window)}
	assert.True(t, boundary.WindowExpired(now, window))

	lapsed := &ResendLimit{FirstResend: now.Add(-window - time.Second)}
	assert.True(t, lapsed.WindowExpired(now, window))
}
