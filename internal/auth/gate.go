package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/accounthub/internal/domain/account"
	"github.com/geocoder89/accounthub/internal/security"
)

type AccountFinder interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
}

// Gate checks an email and secret pair against the account store.
type Gate struct {
	accounts  AccountFinder
	hasher    security.Hasher
	dummyHash string
}

// NewGate hashes a throwaway secret up front so unknown emails pay the same
// hashing cost as known ones.
func NewGate(accounts AccountFinder, hasher security.Hasher) (*Gate, error) {
	dummy, err := hasher.Hash("accounthub-dummy-secret")

	if err != nil {
		return nil, fmt.Errorf("gate: dummy hash: %w", err)
	}

	return &Gate{accounts: accounts, hasher: hasher, dummyHash: dummy}, nil
}

// Authenticate returns the account for a matching email and secret.
// Unknown email and wrong secret both yield account.ErrInvalidCredentials.
// An inactive account is reported only after its secret has been verified.
func (g *Gate) Authenticate(ctx context.Context, email, secret string) (account.Account, error) {
	a, err := g.accounts.GetByEmail(ctx, account.NormalizeEmail(email))

	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			_ = g.hasher.Check(g.dummyHash, secret)
			return account.Account{}, account.ErrInvalidCredentials
		}
		return account.Account{}, fmt.Errorf("authenticate: %w", err)
	}

	if err := g.hasher.Check(a.SecretHash, secret); err != nil {
		if errors.Is(err, security.ErrMismatch) {
			return account.Account{}, account.ErrInvalidCredentials
		}
		return account.Account{}, fmt.Errorf("authenticate: verify secret: %w", err)
	}

	if a.Status == account.StatusInactive {
		return account.Account{}, account.ErrAccountInactive
	}

	return a, nil
}
