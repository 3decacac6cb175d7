package account

import "errors"

var (
	ErrDuplicateIdentity  = errors.New("email already registered")
	ErrInvalidAge         = errors.New("account holder must be at least 18")
	ErrNotFound           = errors.New("account not found")
	ErrInvalidValue       = errors.New("invalid value")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
)
