package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrSimulatedOutage = errors.New("provider down (simulated)")

// LogNotifier writes notifications to the log instead of a mail provider.
// Delay and Fail let a local setup exercise the breaker and retries.
type LogNotifier struct {
	log   *slog.Logger
	Delay time.Duration
	Fail  bool
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendWelcome(ctx context.Context, in WelcomeInput) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.welcome",
		"account_id", in.AccountID,
		"email", in.Email,
		"first_name", in.FirstName,
	)
	return nil
}

func (n *LogNotifier) SendSecretChanged(ctx context.Context, in SecretChangedInput) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.secret_changed",
		"account_id", in.AccountID,
		"email", in.Email,
	)
	return nil
}

func (n *LogNotifier) simulate(ctx context.Context) error {
	if n.Delay > 0 {
		select {
		case <-time.After(n.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if n.Fail {
		return ErrSimulatedOutage
	}
	return nil
}
