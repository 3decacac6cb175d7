package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/account"
)

// AccountsRepo keeps accounts in process. One lock guards both maps so the
// email check and the insert in Create happen in the same critical section.
type AccountsRepo struct {
	mu      sync.RWMutex
	items   map[string]account.Account
	byEmail map[string]string // normalised email -> id
}

func NewAccountsRepo() *AccountsRepo {
	return &AccountsRepo{
		items:   make(map[string]account.Account),
		byEmail: make(map[string]string),
	}
}

func (r *AccountsRepo) Create(_ context.Context, a account.Account) (account.Account, error) {
	a.Email = account.NormalizeEmail(a.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[a.Email]; taken {
		return account.Account{}, account.ErrDuplicateIdentity
	}

	r.items[a.ID] = a
	r.byEmail[a.Email] = a.ID

	return a, nil
}

func (r *AccountsRepo) GetByID(_ context.Context, id string) (account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	return a, nil
}

func (r *AccountsRepo) GetByEmail(_ context.Context, email string) (account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[account.NormalizeEmail(email)]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	return r.items[id], nil
}

func (r *AccountsRepo) List(_ context.Context, filter account.ListFilter) ([]account.Account, error) {
	r.mu.RLock()
	out := make([]account.Account, 0, len(r.items))
	for _, a := range r.items {
		if filter.Matches(a) {
			out = append(out, a)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *AccountsRepo) Stats(_ context.Context) (account.Stats, error) {
	s := account.NewStats()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.items {
		s.Total++
		s.ByRole[a.Role]++
		s.ByStatus[a.Status]++
	}

	return s, nil
}

func (r *AccountsRepo) UpdateProfile(_ context.Context, id string, u account.ProfileUpdate, now time.Time) (account.Account, error) {
	return r.mutate(id, func(a *account.Account) {
		a.Apply(u, now)
	})
}

func (r *AccountsRepo) SetRole(_ context.Context, id string, role account.Role, now time.Time) (account.Account, error) {
	return r.mutate(id, func(a *account.Account) {
		a.Role = role
		a.UpdatedAt = now
	})
}

func (r *AccountsRepo) SetStatus(_ context.Context, id string, status account.Status, now time.Time) (account.Account, error) {
	return r.mutate(id, func(a *account.Account) {
		a.Status = status
		a.UpdatedAt = now
	})
}

func (r *AccountsRepo) SetSecretHash(_ context.Context, id string, hash string, now time.Time) error {
	_, err := r.mutate(id, func(a *account.Account) {
		a.SecretHash = hash
		a.UpdatedAt = now
	})
	return err
}

func (r *AccountsRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok {
		return account.ErrNotFound
	}

	delete(r.items, id)
	delete(r.byEmail, a.Email)

	return nil
}

func (r *AccountsRepo) mutate(id string, fn func(a *account.Account)) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	fn(&a)
	r.items[id] = a

	return a, nil
}
