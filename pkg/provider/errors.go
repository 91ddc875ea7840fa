package provider

import "errors"

var (
	// ErrInvalidToken is returned when the provider rejects the
	// presented token.
	ErrInvalidToken = errors.New("provider: invalid token")

	// ErrUnavailable is returned when the provider cannot be reached
	// or answers with a server error.
	ErrUnavailable = errors.New("provider: temporarily unavailable")

	// ErrUnknownProvider is returned for a provider name the registry
	// does not know.
	ErrUnknownProvider = errors.New("provider: unknown provider")

	// ErrMissingCredentials is returned when a provider is constructed
	// without client credentials.
	ErrMissingCredentials = errors.New("provider: client id and secret are required")
)
