package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrBadRequest     = errors.New("bad request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal server error")

	// Verification-specific errors
	ErrTokenUsed    = errors.New("verification token already used")
	ErrTokenExpired = errors.New("verification token expired")
	ErrEmailSend    = errors.New("failed to send email")
)
