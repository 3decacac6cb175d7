package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = 12

var ErrMismatch = errors.New("secret does not match hash")

// Hasher derives and checks one-way secret hashes.
type Hasher interface {
	Hash(secret string) (string, error)
	Check(hash, secret string) error
}

type BcryptHasher struct {
	cost int
}

// NewBcryptHasher clamps cost into bcrypt's accepted range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}

	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash hashes a plain text secret with a per-call random salt.
func (h *BcryptHasher) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)

	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}

	return string(hash), nil
}

// Check compares a bcrypt hash with a plaintext secret in constant time.
// A wrong secret comes back as ErrMismatch; a malformed hash keeps bcrypt's error.
func (h *BcryptHasher) Check(hash, secret string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}

	return err
}
