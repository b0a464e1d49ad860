package contextutils

import (
	"strings"
)

// MaskSecret masks an API key or token for logging.
// Only the first and last 4 characters survive; short values are fully starred.
func MaskSecret(secret string) string {
	if secret == "" {
		return "[EMPTY]"
	}

	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}

	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}

// MaskEmail keeps the first character of the local part and the whole domain,
// so notification logs can be correlated without printing addresses.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return MaskSecret(email)
	}
	return email[:1] + strings.Repeat("*", at-1) + email[at:]
}
