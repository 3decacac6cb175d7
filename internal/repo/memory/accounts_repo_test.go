package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/account"
)

func newAccount(email string, created time.Time) account.Account {
	return account.NewFromCandidate(account.Candidate{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		BirthDate: account.NewDate(1990, time.May, 1),
	}, "hash", created)
}

func TestAccountsRepo_CreateRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	r := NewAccountsRepo()
	now := account.Now()

	if _, err := r.Create(ctx, newAccount("ada@example.com", now)); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := r.Create(ctx, newAccount("  ADA@example.com ", now))
	if !errors.Is(err, account.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestAccountsRepo_ConcurrentCreateSameEmail(t *testing.T) {
	ctx := context.Background()
	r := NewAccountsRepo()
	now := account.Now()

	const n = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Create(ctx, newAccount("race@example.com", now)); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if success != 1 {
		t.Fatalf("expected exactly one successful create, got %d", success)
	}
}

func TestAccountsRepo_GetByEmailNormalises(t *testing.T) {
	ctx := context.Background()
	r := NewAccountsRepo()

	created, _ := r.Create(ctx, newAccount("Grace@Example.com", account.Now()))

	got, err := r.GetByEmail(ctx, " grace@EXAMPLE.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, got.ID)
	}
}

func TestAccountsRepo_MutationsOnMissingID(t *testing.T) {
	ctx := context.Background()
	r := NewAccountsRepo()
	now := account.Now()

	checks := map[string]error{}
	_, checks["get"] = r.GetByID(ctx, "nope")
	_, checks["update"] = r.UpdateProfile(ctx, "nope", account.ProfileUpdate{}, now)
	_, checks["role"] = r.SetRole(ctx, "nope", account.RoleAdmin, now)
	_, checks["status"] = r.SetStatus(ctx, "nope", account.StatusInactive, now)
	checks["secret"] = r.SetSecretHash(ctx, "nope", "h", now)
	checks["delete"] = r.Delete(ctx, "nope")

	for name, err := range checks {
		if !errors.Is(err, account.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestAccountsRepo_DeleteFreesEmail(t *testing.T) {
	ctx := context.Background()
	r := NewAccountsRepo()
	now := account.Now()

	a, _ := r.Create(ctx, newAccount("ada@example.com", now))

	if err := r.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := r.Delete(ctx, a.ID); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	if _, err := r.Create(ctx, newAccount("ada@example.com", now)); err != nil {
		t.Fatalf("re-register after delete: %v", err)
	}
}

func TestAccountsRepo_ListFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	r := NewAccountsRepo()
	base := account.Now()

	for i := 0; i < 4; i++ {
		a := newAccount(fmt.Sprintf("u%d@example.com", i), base.Add(time.Duration(i)*time.Second))
		if i%2 == 0 {
			a.City = "Lisbon"
		}
		if _, err := r.Create(ctx, a); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, _ := r.List(ctx, account.ListFilter{})
	if len(all) != 4 {
		t.Fatalf("expected 4, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.Before(all[i-1].CreatedAt) {
			t.Fatalf("list not ordered by createdAt")
		}
	}

	city := "Lisbon"
	lisbon, _ := r.List(ctx, account.ListFilter{City: &city})
	if len(lisbon) != 2 {
		t.Fatalf("expected 2 in Lisbon, got %d", len(lisbon))
	}
}

func TestAccountsRepo_StatsAndMutations(t *testing.T) {
	ctx := context.Background()
	r := NewAccountsRepo()
	now := account.Now()

	a, _ := r.Create(ctx, newAccount("a@example.com", now))
	_, _ = r.Create(ctx, newAccount("b@example.com", now))

	later := now.Add(time.Minute)
	updated, err := r.SetRole(ctx, a.ID, account.RoleAdmin, later)
	if err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Fatalf("expected updatedAt %v, got %v", later, updated.UpdatedAt)
	}
	if _, err := r.SetStatus(ctx, a.ID, account.StatusInactive, later); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	s, _ := r.Stats(ctx)
	if s.Total != 2 || s.ByRole[account.RoleAdmin] != 1 || s.ByRole[account.RoleUser] != 1 {
		t.Fatalf("unexpected role stats: %+v", s)
	}
	if s.ByStatus[account.StatusInactive] != 1 || s.ByStatus[account.StatusActive] != 1 {
		t.Fatalf("unexpected status stats: %+v", s)
	}
}
