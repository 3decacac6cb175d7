package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/account"
	"github.com/geocoder89/accounthub/internal/domain/job"
	"github.com/geocoder89/accounthub/internal/jobs"
	"github.com/geocoder89/accounthub/internal/security"
)

// JobsCreator queues background work. The service only uses it for welcome
// notifications, so a nil JobsCreator simply disables them.
type JobsCreator interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

type Service struct {
	repo   Repository
	hasher security.Hasher
	jobs   JobsCreator
	log    *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, hasher security.Hasher, jobsRepo JobsCreator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		repo:   repo,
		hasher: hasher,
		jobs:   jobsRepo,
		log:    log,
		now:    account.Now,
	}
}

// Register creates an account from a validated candidate.
func (s *Service) Register(ctx context.Context, c account.Candidate) (account.Account, error) {
	now := s.now()

	if !account.IsAdult(c.BirthDate, now) {
		return account.Account{}, account.ErrInvalidAge
	}

	hash, err := s.hasher.Hash(c.Secret)

	if err != nil {
		return account.Account{}, fmt.Errorf("register: %w", err)
	}

	created, err := s.repo.Create(ctx, account.NewFromCandidate(c, hash, now))

	if err != nil {
		return account.Account{}, err
	}

	s.enqueueWelcome(ctx, created)

	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (account.Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter account.ListFilter) ([]account.Account, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Stats(ctx context.Context) (account.Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *Service) UpdateProfile(ctx context.Context, id string, u account.ProfileUpdate) (account.Account, error) {
	return s.repo.UpdateProfile(ctx, id, u, s.now())
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// SetRole validates the value before touching the store, so an unknown value
// is reported as ErrInvalidValue even for an id that does not exist.
func (s *Service) SetRole(ctx context.Context, id string, raw string) (account.Account, error) {
	role, err := account.ParseRole(raw)

	if err != nil {
		return account.Account{}, err
	}

	return s.repo.SetRole(ctx, id, role, s.now())
}

// SetStatus follows the same order as SetRole: value first, then existence.
func (s *Service) SetStatus(ctx context.Context, id string, raw string) (account.Account, error) {
	status, err := account.ParseStatus(raw)

	if err != nil {
		return account.Account{}, err
	}

	return s.repo.SetStatus(ctx, id, status, s.now())
}

// ChangeSecret replaces the stored hash after proving knowledge of the current secret.
func (s *Service) ChangeSecret(ctx context.Context, id, current, next string) error {
	a, err := s.repo.GetByID(ctx, id)

	if err != nil {
		return err
	}

	err = s.hasher.Check(a.SecretHash, current)

	if err != nil {
		if errors.Is(err, security.ErrMismatch) {
			return account.ErrInvalidCredentials
		}
		return fmt.Errorf("change secret: verify: %w", err)
	}

	hash, err := s.hasher.Hash(next)

	if err != nil {
		return fmt.Errorf("change secret: %w", err)
	}

	now := s.now()

	if err := s.repo.SetSecretHash(ctx, id, hash, now); err != nil {
		return err
	}

	s.enqueueSecretChanged(ctx, a, now)

	return nil
}

func (s *Service) enqueueWelcome(ctx context.Context, a account.Account) {
	raw, err := jobs.WelcomePayload{
		AccountID:   a.ID,
		Email:       a.Email,
		FirstName:   a.FirstName,
		RequestedAt: s.now(),
	}.JSON()

	s.enqueue(ctx, jobs.TypeAccountWelcome, "account:welcome:"+a.ID, a.ID, raw, err)
}

func (s *Service) enqueueSecretChanged(ctx context.Context, a account.Account, at time.Time) {
	raw, err := jobs.SecretChangedPayload{
		AccountID: a.ID,
		Email:     a.Email,
		ChangedAt: at,
	}.JSON()

	key := fmt.Sprintf("account:secret_changed:%s:%d", a.ID, at.UnixMicro())
	s.enqueue(ctx, jobs.TypeSecretChanged, key, a.ID, raw, err)
}

// enqueue is best effort: the account write already succeeded.
func (s *Service) enqueue(ctx context.Context, jobType, key, accountID string, raw json.RawMessage, encodeErr error) {
	if s.jobs == nil {
		return
	}

	if encodeErr != nil {
		s.log.ErrorContext(ctx, "job payload encode failed", "type", jobType, "account_id", accountID, "err", encodeErr)
		return
	}

	_, err := s.jobs.Create(ctx, job.CreateRequest{
		Type:           jobType,
		Payload:        raw,
		MaxAttempts:    10,
		IdempotencyKey: &key,
		AccountID:      &accountID,
	})

	if err != nil {
		s.log.WarnContext(ctx, "job not queued", "type", jobType, "account_id", accountID, "err", err)
	}
}
