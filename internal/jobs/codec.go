package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/geocoder89/accounthub/internal/domain/job"
)

// EncodePayload validates payload against t and marshals it.
func EncodePayload(t string, payload any) (json.RawMessage, error) {
	if err := ValidatePayload(t, payload); err != nil {
		return nil, err
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return json.RawMessage(b), nil
}

// DecodePayload unmarshals j.Payload into the typed payload for j.Type.
func DecodePayload(j job.Job) (any, error) {
	if !IsKnownType(j.Type) {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	var (
		out any
		err error
	)

	switch j.Type {
	case TypeAccountWelcome:
		var p WelcomePayload
		err = json.Unmarshal(j.Payload, &p)
		out = p

	case TypeSecretChanged:
		var p SecretChangedPayload
		err = json.Unmarshal(j.Payload, &p)
		out = p
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	if err := ValidatePayload(j.Type, out); err != nil {
		return nil, err
	}

	return out, nil
}
