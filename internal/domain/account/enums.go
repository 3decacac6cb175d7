package account

import "fmt"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"

	DefaultRole = RoleUser
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: role %q", ErrInvalidValue, raw)
	}
	return r, nil
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"

	DefaultStatus = StatusActive
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive:
		return true
	default:
		return false
	}
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: status %q", ErrInvalidValue, raw)
	}
	return s, nil
}
