package account

import (
	"strings"
	"time"
)

type Account struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	SecretHash string    `json:"-"` // never expose hash in JSON
	BirthDate  Date      `json:"birthDate"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	Country    string    `json:"country,omitempty"`
	Role       Role      `json:"role"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Candidate carries validated registration fields into the store.
type Candidate struct {
	FirstName string
	LastName  string
	Email     string
	Secret    string
	BirthDate Date
	Phone     string
	Address   string
	City      string
	Country   string
}

// ProfileUpdate is the only field set the generic update path may touch.
// Email, role, status and secret have their own operations.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Phone     string
	Address   string
	City      string
	Country   string
}

// ListFilter narrows List; a nil field matches every account.
type ListFilter struct {
	Role    *Role
	Status  *Status
	City    *string
	Country *string
}

type Stats struct {
	Total    int            `json:"total"`
	ByRole   map[Role]int   `json:"byRole"`
	ByStatus map[Status]int `json:"byStatus"`
}

// NormalizeEmail is the canonical form used for the uniqueness index and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Now returns the store clock: UTC, truncated to what postgres keeps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Apply overwrites the mutable profile fields and stamps updatedAt.
func (a *Account) Apply(u ProfileUpdate, now time.Time) {
	a.FirstName = u.FirstName
	a.LastName = u.LastName
	a.Phone = u.Phone
	a.Address = u.Address
	a.City = u.City
	a.Country = u.Country
	a.UpdatedAt = now
}

// Matches reports whether a passes every set filter.
func (f ListFilter) Matches(a Account) bool {
	if f.Role != nil && a.Role != *f.Role {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	if f.City != nil && a.City != *f.City {
		return false
	}
	if f.Country != nil && a.Country != *f.Country {
		return false
	}
	return true
}

func NewStats() Stats {
	return Stats{
		ByRole:   map[Role]int{RoleUser: 0, RoleAdmin: 0},
		ByStatus: map[Status]int{StatusActive: 0, StatusInactive: 0},
	}
}
