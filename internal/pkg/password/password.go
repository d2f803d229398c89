package password

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is tuned for interactive login latency on the portal
const bcryptCost = 12

// minLength is the weakest password accepted at registration
const minLength = 8

// Hash bcrypt-hashes a plaintext password for storage
func Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches a stored bcrypt hash
func Verify(plaintext, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
}

// HashToken returns the hex SHA256 of a token. Refresh tokens are stored by
// this hash only, never in the clear: a leaked table cannot replay a session.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidatePassword reports whether a candidate password is acceptable
func ValidatePassword(candidate string) bool {
	return len(candidate) >= minLength
}
