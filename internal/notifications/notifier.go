package notifications

import "context"

type WelcomeInput struct {
	AccountID string
	Email     string
	FirstName string
}

type SecretChangedInput struct {
	AccountID string
	Email     string
}

type Notifier interface {
	SendWelcome(ctx context.Context, in WelcomeInput) error
	SendSecretChanged(ctx context.Context, in SecretChangedInput) error
}
