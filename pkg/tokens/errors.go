package tokens

import "errors"

var (
	// ErrMissingSigningKey is returned when the issuer is configured
	// without a signing key.
	ErrMissingSigningKey = errors.New("tokens: signing key is required")

	// ErrAccessExpired is returned for a well-formed access token past
	// its expiry.
	ErrAccessExpired = errors.New("tokens: access token expired")

	// ErrAccessInvalid is returned for a malformed access token or one
	// whose signature does not verify.
	ErrAccessInvalid = errors.New("tokens: access token invalid")

	// ErrRefreshInvalid is returned when a refresh token is unknown,
	// expired or already used. The three cases are deliberately
	// indistinguishable: a reused token may be evidence of theft.
	ErrRefreshInvalid = errors.New("tokens: refresh token invalid")

	// ErrRefreshNotFound is the store-level sentinel for a missing
	// refresh record.
	ErrRefreshNotFound = errors.New("tokens: refresh token not found")
)
