package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/delivery"
	"github.com/geocoder89/accounthub/internal/domain/job"
	"github.com/geocoder89/accounthub/internal/jobs"
	"github.com/geocoder89/accounthub/internal/notifications"
)

// errPermanent marks failures a retry cannot fix.
var errPermanent = errors.New("permanent job failure")

// ProcessOne claims and runs at most one job. It reports whether a job was claimed.
func (w *Worker) ProcessOne(ctx context.Context, claimerID string) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	j, err := w.repo.ClaimNext(claimCtx, claimerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	w.stats.IncClaimed()
	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	// a claimed job finishes even when shutdown starts mid-run
	runCtx, cancelRun := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.JobTimeout)
	defer cancelRun()

	start := w.now()
	skipped, err := w.execute(runCtx, j)
	elapsed := w.now().Sub(start)
	w.stats.ObserveDuration(elapsed)

	if err != nil {
		return true, w.handleFailure(runCtx, j, err, elapsed)
	}

	if skipped {
		w.stats.IncSkipped()
	}

	if err := w.repo.MarkDone(runCtx, j.ID); err != nil {
		_ = w.repo.MarkFailed(runCtx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	w.stats.IncDone()
	w.observe(j.Type, "done", elapsed)
	w.log.InfoContext(ctx, "job done", "job_id", j.ID, "type", j.Type, "attempt", j.Attempts+1)

	return true, nil
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, cause error, elapsed time.Duration) error {
	j.Attempts++

	if errors.Is(cause, errPermanent) || j.Exhausted() {
		w.stats.IncFailed()
		w.observe(j.Type, "failed", elapsed)
		w.log.ErrorContext(ctx, "job failed", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts, "err", cause)
		return w.repo.MarkFailed(ctx, j.ID, cause.Error())
	}

	delay := w.backoff.Next(j.Attempts - 1)

	w.stats.IncRetried()
	w.observe(j.Type, "retry", elapsed)
	w.log.WarnContext(ctx, "job rescheduled", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts, "delay", delay, "err", cause)

	return w.repo.Reschedule(ctx, j.ID, w.now().UTC().Add(delay), cause.Error())
}

func (w *Worker) observe(jobType, result string, d time.Duration) {
	if w.prom != nil {
		w.prom.ObserveJob(jobType, result, d)
	}
}

// execute runs the job. skipped is true when the ledger shows the
// notification already went out.
func (w *Worker) execute(ctx context.Context, j job.Job) (skipped bool, err error) {
	payload, err := jobs.DecodePayload(j)
	if err != nil {
		return false, fmt.Errorf("%w: %v", errPermanent, err)
	}

	key := j.ID
	if j.IdempotencyKey != nil {
		key = *j.IdempotencyKey
	}

	switch p := payload.(type) {
	case jobs.WelcomePayload:
		return w.deliver(ctx, j, key, p.Email, func(ctx context.Context) error {
			return w.notifier.SendWelcome(ctx, notifications.WelcomeInput{
				AccountID: p.AccountID,
				Email:     p.Email,
				FirstName: p.FirstName,
			})
		})

	case jobs.SecretChangedPayload:
		return w.deliver(ctx, j, key, p.Email, func(ctx context.Context) error {
			return w.notifier.SendSecretChanged(ctx, notifications.SecretChangedInput{
				AccountID: p.AccountID,
				Email:     p.Email,
			})
		})

	default:
		return false, fmt.Errorf("%w: no handler for %s", errPermanent, j.Type)
	}
}

func (w *Worker) deliver(ctx context.Context, j job.Job, key, recipient string, send func(context.Context) error) (bool, error) {
	if w.ledger == nil {
		return false, send(ctx)
	}

	err := w.ledger.TryStart(ctx, j.Type, key, j.ID, recipient)
	if errors.Is(err, delivery.ErrAlreadySent) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if err := send(ctx); err != nil {
		if mErr := w.ledger.MarkFailed(ctx, j.Type, key, err.Error()); mErr != nil {
			w.log.ErrorContext(ctx, "ledger mark failed", "job_id", j.ID, "err", mErr)
		}
		return false, err
	}

	return false, w.ledger.MarkSent(ctx, j.Type, key)
}
