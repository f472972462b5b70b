package logger

import (
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "u***@e***.com")
func SanitizedEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[invalid-email]"
	}

	username := parts[0]
	domain := parts[1]

	// Mask username: keep first char, mask rest
	if len(username) > 1 {
		username = string(username[0]) + strings.Repeat("*", len(username)-1)
	}

	// Mask domain: keep TLD, mask the rest
	domainParts := strings.Split(domain, ".")
	if len(domainParts) > 1 {
		for i := 0; i < len(domainParts)-1; i++ {
			domainParts[i] = strings.Repeat("*", len(domainParts[i]))
		}
		domain = strings.Join(domainParts, ".")
	}

	return username + "@" + domain
}

// SanitizedToken keeps a short prefix of a verification token so log lines
// can be correlated against the database without ever logging the full
// capability string.
func SanitizedToken(token string) string {
	if len(token) < 8 {
		return "[invalid-token]"
	}
	return token[:8] + "..."
}

// SanitizeQueryString checks if a query string contains sensitive
// parameters and returns true if the whole query should be redacted.
// Verification links carry the raw token in the query, so any request
// line with a token parameter is redacted.
func SanitizeQueryString(rawQuery string) bool {
	sensitiveParams := []string{
		"token",
		"password",
		"secret",
		"email",
		"auth",
	}

	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
