package handlers

import (
	"time"

	"github.com/geocoder89/accounthub/internal/domain/account"
)

type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email,max=100"`
	Secret    string `json:"secret" binding:"required,min=8,maxbytes=72"`
	BirthDate string `json:"birthDate" binding:"required,datetime=2006-01-02"`
	Phone     string `json:"phone" binding:"omitempty,max=20"`
	Address   string `json:"address"`
	City      string `json:"city" binding:"omitempty,max=100"`
	Country   string `json:"country" binding:"omitempty,max=100"`
}

// candidate parses the birth date and checks it lies strictly before today.
func (r RegisterRequest) candidate(now time.Time) (account.Candidate, *FieldError) {
	birth, err := account.ParseDate(r.BirthDate)
	if err != nil {
		return account.Candidate{}, &FieldError{
			Field:   "birthDate",
			Rule:    "datetime",
			Param:   account.DateLayout,
			Message: validationMessage("datetime", account.DateLayout),
		}
	}

	if !birth.Before(account.DateOf(now).Time) {
		return account.Candidate{}, &FieldError{
			Field:   "birthDate",
			Rule:    "past",
			Message: validationMessage("past", ""),
		}
	}

	return account.Candidate{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Secret:    r.Secret,
		BirthDate: birth,
		Phone:     r.Phone,
		Address:   r.Address,
		City:      r.City,
		Country:   r.Country,
	}, nil
}

type LoginRequest struct {
	Email  string `json:"email" binding:"required,email"`
	Secret string `json:"secret" binding:"required"`
}

type LoginResponse struct {
	Account     account.Account `json:"account"`
	AccessToken string          `json:"accessToken"`
	TokenType   string          `json:"tokenType"`
	ExpiresIn   int64           `json:"expiresIn"`
}

type UpdateRequest struct {
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
	Phone     string `json:"phone" binding:"omitempty,max=20"`
	Address   string `json:"address"`
	City      string `json:"city" binding:"omitempty,max=100"`
	Country   string `json:"country" binding:"omitempty,max=100"`
}

func (r UpdateRequest) profile() account.ProfileUpdate {
	return account.ProfileUpdate{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Address:   r.Address,
		City:      r.City,
		Country:   r.Country,
	}
}

// Role and status values are checked by the service so that an unknown
// value maps to invalid_value rather than a binding error.
type RoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ChangeSecretRequest struct {
	CurrentSecret string `json:"currentSecret" binding:"required"`
	NewSecret     string `json:"newSecret" binding:"required,min=8,maxbytes=72"`
}

type ListResponse struct {
	Items []account.Account `json:"items"`
	Count int               `json:"count"`
}
