package jobs

import "strings"

// ValidatePayload checks that payload matches t and carries the ids the worker needs.
func ValidatePayload(t string, payload any) error {
	if !IsKnownType(t) {
		return ErrInvalidJobType
	}

	blank := func(s string) bool { return strings.TrimSpace(s) == "" }

	switch t {
	case TypeAccountWelcome:
		var p WelcomePayload
		switch v := payload.(type) {
		case WelcomePayload:
			p = v
		case *WelcomePayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.AccountID) || blank(p.Email) {
			return ErrInvalidJobPayload
		}
		return nil

	case TypeSecretChanged:
		var p SecretChangedPayload
		switch v := payload.(type) {
		case SecretChangedPayload:
			p = v
		case *SecretChangedPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.AccountID) || blank(p.Email) {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
