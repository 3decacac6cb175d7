package jobs

import (
	"encoding/json"
	"time"
)

// WelcomePayload carries what the notifier needs; the worker never reloads the account.
type WelcomePayload struct {
	AccountID   string    `json:"accountId"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName"`
	RequestedAt time.Time `json:"requestedAt"`
}

func (p WelcomePayload) JSON() (json.RawMessage, error) {
	return EncodePayload(TypeAccountWelcome, p)
}

type SecretChangedPayload struct {
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	ChangedAt time.Time `json:"changedAt"`
}

func (p SecretChangedPayload) JSON() (json.RawMessage, error) {
	return EncodePayload(TypeSecretChanged, p)
}
