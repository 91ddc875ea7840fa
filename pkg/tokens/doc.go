// Package tokens implements the session token lifecycle: short-lived
// HS256 access tokens verified without storage access, and opaque
// refresh tokens that rotate on every use.
//
// A refresh token is 32 bytes of randomness; only its SHA-256 hash is
// stored, so a storage leak does not leak usable tokens. Rotation is
// consume-once: the store's Rotate fetches and deletes atomically, and
// any reuse of a consumed token fails with ErrRefreshInvalid. Refresh
// reloads the account so the new access token carries current role and
// email verification state.
package tokens
