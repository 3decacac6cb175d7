package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/accounthub/internal/cache"
	"github.com/geocoder89/accounthub/internal/domain/account"
)

// CachedRepository serves GetByID through a cache and evicts on every write.
//
// A read that loaded a row before a write finished must not put that row back
// after the write's eviction. Every finished write bumps writes under mu
// together with its eviction, and a read only fills the cache if writes is
// unchanged since it started, checked under the same lock.
type CachedRepository struct {
	Repository
	cache cache.Store[account.Account]

	mu     sync.Mutex
	writes uint64
}

func NewCachedRepository(inner Repository, c cache.Store[account.Account]) *CachedRepository {
	return &CachedRepository{Repository: inner, cache: c}
}

func cacheKey(id string) string {
	return "account:" + id
}

func (r *CachedRepository) GetByID(ctx context.Context, id string) (account.Account, error) {
	if a, ok := r.cache.Get(ctx, cacheKey(id)); ok {
		return a, nil
	}

	r.mu.Lock()
	seen := r.writes
	r.mu.Unlock()

	a, err := r.Repository.GetByID(ctx, id)

	if err != nil {
		return account.Account{}, err
	}

	r.mu.Lock()
	if r.writes == seen {
		r.cache.Set(ctx, cacheKey(id), a)
	}
	r.mu.Unlock()

	return a, nil
}

// evict runs once the write has returned, successful or not.
func (r *CachedRepository) evict(ctx context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writes++
	r.cache.Delete(ctx, cacheKey(id))
}

func (r *CachedRepository) UpdateProfile(ctx context.Context, id string, u account.ProfileUpdate, now time.Time) (account.Account, error) {
	defer r.evict(ctx, id)
	return r.Repository.UpdateProfile(ctx, id, u, now)
}

func (r *CachedRepository) SetRole(ctx context.Context, id string, role account.Role, now time.Time) (account.Account, error) {
	defer r.evict(ctx, id)
	return r.Repository.SetRole(ctx, id, role, now)
}

func (r *CachedRepository) SetStatus(ctx context.Context, id string, status account.Status, now time.Time) (account.Account, error) {
	defer r.evict(ctx, id)
	return r.Repository.SetStatus(ctx, id, status, now)
}

func (r *CachedRepository) SetSecretHash(ctx context.Context, id string, hash string, now time.Time) error {
	defer r.evict(ctx, id)
	return r.Repository.SetSecretHash(ctx, id, hash, now)
}

func (r *CachedRepository) Delete(ctx context.Context, id string) error {
	defer r.evict(ctx, id)
	return r.Repository.Delete(ctx, id)
}
