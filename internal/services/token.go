package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// tokenBytes is the entropy of a verification token: 32 bytes (256 bits),
// hex-encoded to a 64-character string. Uniqueness is probabilistic; there
// is no retry-on-collision path.
const tokenBytes = 32

// GenerateToken produces a cryptographically unpredictable verification
// token. Failure to read from the system RNG is unrecoverable, so it
// panics rather than returning an error the caller could not act on.
func GenerateToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}

// NormalizeEmail applies the canonical form used for token (user, email)
// pairing: trimmed and lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
