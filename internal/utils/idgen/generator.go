package idgen

import (
	"crypto/rand"
	"fmt"
	"time"
)

// GenerateSecureID generates a cryptographically secure ID with the given prefix and length.
// Uses only alphanumeric characters (0-9, a-z) - no dashes or special characters.
func GenerateSecureID(prefix string, length int) (string, error) {
	bytes := make([]byte, length*2)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	const charset = "0123456789abcdefghijklmnopqrstuvwxyz"
	encoded := make([]byte, length)
	for i := 0; i < length; i++ {
		encoded[i] = charset[bytes[i]%36] // 36 = len(charset)
	}

	return fmt.Sprintf("%s_%s", prefix, string(encoded)), nil
}

// GenerateProtocolLabel generates a human-readable ticket label for a
// conversation, date-coded plus a random suffix: TKT-20260830-4F7A2C.
// Uniqueness is enforced by the store; callers retry on collision.
func GenerateProtocolLabel(now time.Time) (string, error) {
	const suffixLen = 6
	bytes := make([]byte, suffixLen*2)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	const charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffix := make([]byte, suffixLen)
	for i := 0; i < suffixLen; i++ {
		suffix[i] = charset[bytes[i]%36]
	}

	return fmt.Sprintf("TKT-%s-%s", now.Format("20060102"), string(suffix)), nil
}
