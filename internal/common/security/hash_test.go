package security

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct horse" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !CheckPasswordHash("correct horse", hash) {
		t.Fatalf("expected match")
	}
	if CheckPasswordHash("battery staple", hash) {
		t.Fatalf("expected mismatch")
	}
}

func TestHashToken_LongInput(t *testing.T) {
	token := strings.Repeat("x", 400)
	hash, err := HashToken(token)
	if err != nil {
		t.Fatalf("hash long token: %v", err)
	}
	if !CheckTokenHash(token, hash) {
		t.Fatalf("expected token match")
	}
	if CheckTokenHash(token+"y", hash) {
		t.Fatalf("expected mismatch for different token")
	}
}

func TestNewVerificationToken(t *testing.T) {
	a, err := NewVerificationToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	b, _ := NewVerificationToken()
	if len(a) != 64 || a == b {
		t.Fatalf("unexpected tokens %q %q", a, b)
	}
	if DigestToken(a) == a || len(DigestToken(a)) != 64 {
		t.Fatalf("unexpected digest")
	}
}
