package provider

import (
	"context"

	"github.com/dmitrymomot/authkit/pkg/identity"
)

// Provider verifies tokens from one identity provider and turns them
// into identity assertions.
type Provider interface {
	// Name is the provider's registry key, e.g. "google".
	Name() string

	// AuthURL builds the provider's consent page URL for the
	// authorization code flow.
	AuthURL(state string) string

	// Exchange trades an authorization code for a provider access
	// token.
	Exchange(ctx context.Context, code string) (string, error)

	// VerifyAndFetch validates a provider access token against the
	// provider's API and returns the verified assertion. Tokens the
	// provider rejects fail with ErrInvalidToken; provider outages
	// fail with ErrUnavailable.
	VerifyAndFetch(ctx context.Context, accessToken string) (identity.Assertion, error)
}
