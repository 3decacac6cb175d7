package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/account"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const accountColumns = `id, first_name, last_name, email, secret_hash, birth_date,
	phone, address, city, country, role, status, created_at, updated_at`

type AccountsRepo struct {
	db DB
	observer
}

func NewAccountsRepo(db DB, prom *observability.Prom) *AccountsRepo {
	return &AccountsRepo{db: db, observer: observer{prom: prom}}
}

func scanAccount(row pgx.Row) (account.Account, error) {
	var (
		a            account.Account
		birth        time.Time
		role, status string
	)

	err := row.Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.SecretHash, &birth,
		&a.Phone, &a.Address, &a.City, &a.Country, &role, &status,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return account.Account{}, err
	}

	a.BirthDate = account.DateOf(birth)
	a.Role = account.Role(role)
	a.Status = account.Status(status)

	return a, nil
}

// notFound maps pgx.ErrNoRows onto the domain sentinel.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return account.ErrNotFound
	}
	return err
}

func (r *AccountsRepo) Create(ctx context.Context, a account.Account) (account.Account, error) {
	a.Email = account.NormalizeEmail(a.Email)

	err := r.observe("accounts.create", func() error {
		_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			a.ID, a.FirstName, a.LastName, a.Email, a.SecretHash, a.BirthDate.Time,
			a.Phone, a.Address, a.City, a.Country, string(a.Role), string(a.Status),
			a.CreatedAt, a.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return account.Account{}, account.ErrDuplicateIdentity
		}
		return account.Account{}, err
	}

	return a, nil
}

func (r *AccountsRepo) GetByID(ctx context.Context, id string) (account.Account, error) {
	var a account.Account

	err := r.observe("accounts.get_by_id", func() error {
		var err error
		a, err = scanAccount(r.db.QueryRow(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
		return err
	})

	if err != nil {
		return account.Account{}, notFound(err)
	}
	return a, nil
}

func (r *AccountsRepo) GetByEmail(ctx context.Context, email string) (account.Account, error) {
	var a account.Account

	err := r.observe("accounts.get_by_email", func() error {
		var err error
		a, err = scanAccount(r.db.QueryRow(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, account.NormalizeEmail(email)))
		return err
	})

	if err != nil {
		return account.Account{}, notFound(err)
	}
	return a, nil
}

func (r *AccountsRepo) List(ctx context.Context, filter account.ListFilter) ([]account.Account, error) {
	var (
		conds []string
		args  []any
	)

	add := func(col string, v string) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if filter.Role != nil {
		add("role", string(*filter.Role))
	}
	if filter.Status != nil {
		add("status", string(*filter.Status))
	}
	if filter.City != nil {
		add("city", *filter.City)
	}
	if filter.Country != nil {
		add("country", *filter.Country)
	}

	q := `SELECT ` + accountColumns + ` FROM accounts`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at ASC, id ASC"

	var rows pgx.Rows

	err := r.observe("accounts.list", func() error {
		var qerr error
		rows, qerr = r.db.Query(ctx, q, args...)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]account.Account, 0)

	for rows.Next() {
		a, scanErr := scanAccount(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, a)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return out, nil
}

func (r *AccountsRepo) Stats(ctx context.Context) (account.Stats, error) {
	s := account.NewStats()

	var rows pgx.Rows

	err := r.observe("accounts.stats", func() error {
		var qerr error
		rows, qerr = r.db.Query(ctx, `
		SELECT role, status, COUNT(*)
		FROM accounts
		GROUP BY role, status`)
		return qerr
	})
	if err != nil {
		return account.Stats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			role, status string
			n            int
		)
		if scanErr := rows.Scan(&role, &status, &n); scanErr != nil {
			return account.Stats{}, scanErr
		}
		s.Total += n
		s.ByRole[account.Role(role)] += n
		s.ByStatus[account.Status(status)] += n
	}

	if rows.Err() != nil {
		return account.Stats{}, rows.Err()
	}

	return s, nil
}

func (r *AccountsRepo) UpdateProfile(ctx context.Context, id string, u account.ProfileUpdate, now time.Time) (account.Account, error) {
	return r.updateReturning(ctx, "accounts.update_profile", `
		UPDATE accounts
		SET first_name = $2,
		    last_name = $3,
		    phone = $4,
		    address = $5,
		    city = $6,
		    country = $7,
		    updated_at = $8
		WHERE id = $1
		RETURNING `+accountColumns,
		id, u.FirstName, u.LastName, u.Phone, u.Address, u.City, u.Country, now,
	)
}

func (r *AccountsRepo) SetRole(ctx context.Context, id string, role account.Role, now time.Time) (account.Account, error) {
	return r.updateReturning(ctx, "accounts.set_role", `
		UPDATE accounts
		SET role = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+accountColumns,
		id, string(role), now,
	)
}

func (r *AccountsRepo) SetStatus(ctx context.Context, id string, status account.Status, now time.Time) (account.Account, error) {
	return r.updateReturning(ctx, "accounts.set_status", `
		UPDATE accounts
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+accountColumns,
		id, string(status), now,
	)
}

func (r *AccountsRepo) SetSecretHash(ctx context.Context, id string, hash string, now time.Time) error {
	return r.execOne(ctx, "accounts.set_secret_hash", `
		UPDATE accounts
		SET secret_hash = $2, updated_at = $3
		WHERE id = $1`,
		id, hash, now,
	)
}

func (r *AccountsRepo) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, "accounts.delete", `DELETE FROM accounts WHERE id = $1`, id)
}

func (r *AccountsRepo) updateReturning(ctx context.Context, op, q string, args ...any) (account.Account, error) {
	var a account.Account

	err := r.observe(op, func() error {
		var err error
		a, err = scanAccount(r.db.QueryRow(ctx, q, args...))
		return err
	})

	if err != nil {
		return account.Account{}, notFound(err)
	}
	return a, nil
}

// execOne runs a single-row write and reports ErrNotFound when nothing matched.
func (r *AccountsRepo) execOne(ctx context.Context, op, q string, args ...any) error {
	var tag pgconn.CommandTag

	err := r.observe(op, func() error {
		var err error
		tag, err = r.db.Exec(ctx, q, args...)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}
	return nil
}
