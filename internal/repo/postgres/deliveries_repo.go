package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/delivery"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/jackc/pgx/v5"
)

// DeliveriesRepo is the send ledger keyed by (kind, dedupe key).
type DeliveriesRepo struct {
	db DB
	observer
}

func NewDeliveriesRepo(db DB, prom *observability.Prom) *DeliveriesRepo {
	return &DeliveriesRepo{db: db, observer: observer{prom: prom}}
}

// TryStart claims the right to send. It returns delivery.ErrAlreadySent or
// delivery.ErrInProgress when another attempt owns the row.
func (r *DeliveriesRepo) TryStart(ctx context.Context, kind, key, jobID, recipient string) error {
	err := r.observe("deliveries.insert", func() error {
		_, err := r.db.Exec(ctx, `
		INSERT INTO notification_deliveries (kind, dedupe_key, job_id, recipient, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'sending', NOW(), NOW())`, kind, key, jobID, recipient)
		return err
	})

	if err == nil {
		return nil
	}
	if !IsUniqueViolation(err) {
		return err
	}

	// only one worker can flip failed -> sending
	var claimed bool

	err = r.observe("deliveries.reclaim", func() error {
		tag, err := r.db.Exec(ctx, `
		UPDATE notification_deliveries
		SET status = 'sending',
		    job_id = $3,
		    recipient = $4,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE kind = $1 AND dedupe_key = $2 AND status = 'failed'`, kind, key, jobID, recipient)
		if err != nil {
			return err
		}
		claimed = tag.RowsAffected() == 1
		return nil
	})

	if err != nil {
		return err
	}
	if claimed {
		return nil
	}

	var (
		status string
		sentAt *time.Time
	)

	err = r.observe("deliveries.get_status", func() error {
		return r.db.QueryRow(ctx, `
		SELECT status, sent_at
		FROM notification_deliveries
		WHERE kind = $1 AND dedupe_key = $2`, kind, key).Scan(&status, &sentAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// row vanished between statements; the job retry will insert again
			return delivery.ErrInProgress
		}
		return err
	}

	if sentAt != nil || status == "sent" {
		return delivery.ErrAlreadySent
	}

	return delivery.ErrInProgress
}

func (r *DeliveriesRepo) MarkSent(ctx context.Context, kind, key string) error {
	return r.observe("deliveries.mark_sent", func() error {
		_, err := r.db.Exec(ctx, `
		UPDATE notification_deliveries
		SET status = 'sent',
		    sent_at = NOW(),
		    last_error = NULL,
		    updated_at = NOW()
		WHERE kind = $1 AND dedupe_key = $2`, kind, key)
		return err
	})
}

func (r *DeliveriesRepo) MarkFailed(ctx context.Context, kind, key, errMsg string) error {
	return r.observe("deliveries.mark_failed", func() error {
		_, err := r.db.Exec(ctx, `
		UPDATE notification_deliveries
		SET status = 'failed',
		    last_error = $3,
		    updated_at = NOW()
		WHERE kind = $1 AND dedupe_key = $2`, kind, key, errMsg)
		return err
	})
}
