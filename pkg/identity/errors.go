package identity

import "errors"

var (
	// ErrAccountNotFound is returned by store lookups that match nothing.
	ErrAccountNotFound = errors.New("identity: account not found")

	// ErrEmailTaken is returned when a write would violate the account
	// email uniqueness constraint.
	ErrEmailTaken = errors.New("identity: email already taken")

	// ErrBindingTaken is returned when a write would violate the
	// (provider, external id) uniqueness constraint.
	ErrBindingTaken = errors.New("identity: binding already taken")

	// ErrBindingNotFound is returned when removing a binding that
	// does not exist.
	ErrBindingNotFound = errors.New("identity: binding not found")

	// ErrLastAuthMethod is returned when removing a binding or password
	// would leave the account with no way to authenticate.
	ErrLastAuthMethod = errors.New("identity: cannot remove last authentication method")

	// ErrInvalidCredentials is returned on password mismatch or when
	// the account has no password set. Deliberately indistinguishable
	// from an unknown email at the API surface.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")

	// ErrInvalidIntent is returned for an unrecognized intent value.
	ErrInvalidIntent = errors.New("identity: invalid intent")

	// ErrNoCurrentAccount is returned when link intent is used without
	// an authenticated account.
	ErrNoCurrentAccount = errors.New("identity: link requires an authenticated account")

	// ErrInvalidAssertion is returned when an assertion is missing its
	// provider or external id.
	ErrInvalidAssertion = errors.New("identity: invalid assertion")

	// ErrMissingEmail is returned when completing a signup without an
	// email address.
	ErrMissingEmail = errors.New("identity: email is required")

	// ErrWeakPassword is returned when a password does not meet the
	// minimum length requirement.
	ErrWeakPassword = errors.New("identity: password too weak")
)
