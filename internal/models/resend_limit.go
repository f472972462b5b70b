package models

import (
	"time"
)

// ResendLimit tracks resend attempts for one user inside a fixed window
// anchored at FirstResend. The window never slides: once FirstResend is
// more than the configured window in the past, the next resend starts a
// fresh window with Count reset to 1.
type ResendLimit struct {
	UserID      string    `json:"user_id"`
	Count       int       `json:"count"`
	FirstResend time.Time `json:"first_resend"`
	LastResend  time.Time `json:"last_resend"`
}

// WindowExpired reports whether the window anchored at FirstResend has
// lapsed as of now.
func (r *ResendLimit) WindowExpired(now time.Time, window time.Duration) bool {
	return now.Sub(r.FirstResend) >= window
}
