package account

import (
	"time"

	"github.com/google/uuid"
)

// A factory to build an Account from a registration candidate once the secret is hashed.
func NewFromCandidate(c Candidate, secretHash string, now time.Time) Account {
	return Account{
		ID:         uuid.NewString(),
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Email:      NormalizeEmail(c.Email),
		SecretHash: secretHash,
		BirthDate:  c.BirthDate,
		Phone:      c.Phone,
		Address:    c.Address,
		City:       c.City,
		Country:    c.Country,
		Role:       DefaultRole,
		Status:     DefaultStatus,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
