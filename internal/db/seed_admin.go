package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/accounthub/internal/config"
	"github.com/geocoder89/accounthub/internal/domain/account"
)

type AccountRegistrar interface {
	Register(ctx context.Context, c account.Candidate) (account.Account, error)
	SetRole(ctx context.Context, id string, raw string) (account.Account, error)
}

// EnsureAdminAccount registers the configured admin on first boot. An existing
// account with that email is left untouched.
func EnsureAdminAccount(ctx context.Context, svc AccountRegistrar, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminSecret == "" {
		return nil
	}

	birth, err := account.ParseDate(cfg.AdminBirthDate)

	if err != nil {
		return fmt.Errorf("seed admin: birth date: %w", err)
	}

	a, err := svc.Register(ctx, account.Candidate{
		FirstName: cfg.AdminFirstName,
		LastName:  cfg.AdminLastName,
		Email:     cfg.AdminEmail,
		Secret:    cfg.AdminSecret,
		BirthDate: birth,
	})

	if errors.Is(err, account.ErrDuplicateIdentity) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	_, err = svc.SetRole(ctx, a.ID, string(account.RoleAdmin))

	return err
}
