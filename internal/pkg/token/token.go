package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewResetToken generates a cryptographically random 64-character hex token
// for password-reset links.
func NewResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
