// Package accounts owns the account store contract: the repository every backend
// implements, the service that enforces registration and mutation rules on top of
// it, and a read-through cache decorator.
package accounts

import (
	"context"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/account"
)

// Repository is the persistence contract for accounts.
//
// Implementations must enforce email uniqueness atomically in Create and apply
// each mutation as a single indivisible write, returning account.ErrNotFound when
// the id does not exist.
type Repository interface {
	Create(ctx context.Context, a account.Account) (account.Account, error)
	GetByID(ctx context.Context, id string) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	List(ctx context.Context, filter account.ListFilter) ([]account.Account, error)
	Stats(ctx context.Context) (account.Stats, error)
	UpdateProfile(ctx context.Context, id string, u account.ProfileUpdate, now time.Time) (account.Account, error)
	SetRole(ctx context.Context, id string, role account.Role, now time.Time) (account.Account, error)
	SetStatus(ctx context.Context, id string, status account.Status, now time.Time) (account.Account, error)
	SetSecretHash(ctx context.Context, id string, hash string, now time.Time) error
	Delete(ctx context.Context, id string) error
}
