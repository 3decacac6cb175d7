package jobs

const (
	// TypeAccountWelcome greets a newly registered account.
	TypeAccountWelcome = "account.welcome"
	// TypeSecretChanged tells the owner their secret was replaced.
	TypeSecretChanged = "account.secret_changed"
)

// IsKnownType reports whether the worker has a handler for t.
func IsKnownType(t string) bool {
	switch t {
	case TypeAccountWelcome, TypeSecretChanged:
		return true
	default:
		return false
	}
}
