// Package crypto implements admin password hashing and session token generation.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// TokenBytes is the amount of entropy in a session token (256 bits).
const TokenBytes = 32

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// NewToken returns a URL-safe random token carrying TokenBytes of entropy.
func NewToken() (string, error) {
	b, err := RandBytes(TokenBytes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashPassword returns the hex SHA-256 digest of password.
//
// The digest is unsalted so that existing admin rows keep verifying.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword recomputes the digest of password and compares it with expected.
func VerifyPassword(password, expected string) bool {
	got := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}
