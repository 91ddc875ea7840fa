// Package provider adapts external identity providers to a common
// interface: verify a provider access token, fetch the subject's
// profile, and return it as an identity assertion.
//
// Google and Kakao are built in; the Registry holds whichever
// providers the deployment configures. Failures are normalized onto
// two sentinels so callers can answer correctly: ErrInvalidToken when
// the provider rejected the credential, ErrUnavailable when the
// provider could not be consulted at all.
package provider
