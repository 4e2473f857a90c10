package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashToken bcrypts the SHA-256 digest of token. bcrypt rejects inputs over
// 72 bytes and signed tokens are longer than that.
func HashToken(token string) (string, error) {
	return HashPassword(DigestToken(token))
}

func CheckTokenHash(token, hash string) bool {
	return CheckPasswordHash(DigestToken(token), hash)
}

// DigestToken is the unsalted lookup key stored for high-entropy random tokens.
func DigestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// NewVerificationToken returns 32 random bytes, hex encoded.
func NewVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
