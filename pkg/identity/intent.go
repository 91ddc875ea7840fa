package identity

import "fmt"

// Intent declares what the caller is trying to do with an assertion.
// The resolver treats each intent differently; there is no implicit
// fallback from one to another.
type Intent string

const (
	// IntentLogin authenticates an existing account and never creates one.
	IntentLogin Intent = "login"

	// IntentSignup creates an account, or logs in when the identity
	// already resolves to one.
	IntentSignup Intent = "signup"

	// IntentLink attaches the asserted identity to the already
	// authenticated account.
	IntentLink Intent = "link"
)

// ParseIntent validates a raw intent string.
func ParseIntent(s string) (Intent, error) {
	switch Intent(s) {
	case IntentLogin, IntentSignup, IntentLink:
		return Intent(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidIntent, s)
	}
}
