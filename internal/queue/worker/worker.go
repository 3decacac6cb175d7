package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/job"
	"github.com/geocoder89/accounthub/internal/notifications"
	"github.com/geocoder89/accounthub/internal/observability"
	"golang.org/x/sync/errgroup"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

// DeliveryLedger records sends so a retried job does not notify twice.
type DeliveryLedger interface {
	TryStart(ctx context.Context, kind, key, jobID, recipient string) error
	MarkSent(ctx context.Context, kind, key string) error
	MarkFailed(ctx context.Context, kind, key, errMsg string) error
}

type Config struct {
	WorkerID      string
	Concurrency   int
	PollInterval  time.Duration
	LockTTL       time.Duration
	JobTimeout    time.Duration
	ShutdownGrace time.Duration
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	notifier notifications.Notifier
	ledger   DeliveryLedger
	log      *slog.Logger
	prom     *observability.Prom
	stats    *observability.JobStats
	backoff  Backoff
	now      func() time.Time

	readyMu sync.RWMutex
	ready   bool
}

type Deps struct {
	Repo     JobsRepository
	Notifier notifications.Notifier
	// Ledger is optional.
	Ledger DeliveryLedger
	Log    *slog.Logger
	// Prom is optional.
	Prom  *observability.Prom
	Stats *observability.JobStats
}

func New(cfg Config, deps Deps) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.WorkerID == "" {
		cfg.WorkerID = "worker"
	}

	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	stats := deps.Stats
	if stats == nil {
		stats = observability.NewJobStats()
	}

	return &Worker{
		cfg:      cfg,
		repo:     deps.Repo,
		notifier: deps.Notifier,
		ledger:   deps.Ledger,
		log:      log,
		prom:     deps.Prom,
		stats:    stats,
		backoff:  DefaultBackoff,
		now:      time.Now,
	}
}

// Run polls with cfg.Concurrency claimers plus a janitor for stale locks,
// until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < w.cfg.Concurrency; i++ {
		claimerID := fmt.Sprintf("%s-%d", w.cfg.WorkerID, i)
		g.Go(func() error {
			return w.loop(gctx, claimerID)
		})
	}

	g.Go(func() error {
		return w.janitor(gctx)
	})

	w.log.Info("worker started", "worker_id", w.cfg.WorkerID, "concurrency", w.cfg.Concurrency)

	return g.Wait()
}

func (w *Worker) loop(ctx context.Context, claimerID string) error {
	for {
		processed, err := w.ProcessOne(ctx, claimerID)
		if err != nil {
			w.log.ErrorContext(ctx, "process job", "claimer", claimerID, "err", err)
		}

		// drain without sleeping while there is work
		if processed && ctx.Err() == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.cfg.PollInterval):
		}
	}
}

func (w *Worker) janitor(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.LockTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.LockTTL)
			if err != nil {
				w.log.ErrorContext(ctx, "requeue stale jobs", "err", err)
				continue
			}
			if n > 0 {
				w.log.WarnContext(ctx, "requeued stale jobs", "count", n)
			}
		}
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) isReady() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}
