package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if hash == "correct horse battery" || strings.Contains(hash, "correct horse") {
		t.Fatalf("hash leaks the secret: %q", hash)
	}

	if err := h.Check(hash, "correct horse battery"); err != nil {
		t.Fatalf("Check(correct) error: %v", err)
	}

	if err := h.Check(hash, "wrong"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("Check(wrong) = %v, want ErrMismatch", err)
	}
}

func TestBcryptHasher_Salted(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, _ := h.Hash("same-secret")
	b, _ := h.Hash("same-secret")

	if a == b {
		t.Fatalf("expected different hashes for the same secret, got %q twice", a)
	}
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	if got := NewBcryptHasher(1).Cost(); got != bcrypt.MinCost {
		t.Fatalf("low cost clamped to %d, want %d", got, bcrypt.MinCost)
	}
	if got := NewBcryptHasher(99).Cost(); got != bcrypt.MaxCost {
		t.Fatalf("high cost clamped to %d, want %d", got, bcrypt.MaxCost)
	}
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	err := h.Check("not-a-hash", "x")
	if err == nil || errors.Is(err, ErrMismatch) {
		t.Fatalf("expected a non-mismatch error for malformed hash, got %v", err)
	}
}
