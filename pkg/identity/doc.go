// Package identity resolves verified identity assertions to accounts
// and manages accounts, provider bindings and passwords.
//
// The Resolver is a pure decision procedure: given an assertion
// (provider, external id, optional email) and a declared intent
// (login, signup or link), it returns exactly one of three outcomes:
//
//   - Authenticated: the assertion resolved to an account, which may
//     have just been created (IsNew).
//   - NeedsEmail: a signup cannot finish because the provider shared
//     no email; the pending profile round-trips to CompleteSignup.
//   - Conflict: the resolver refused, with a stable reason code.
//
// Concurrent races are settled by the Store's uniqueness constraints
// on account email and (provider, external id); the resolver maps
// constraint violations back to deterministic outcomes so two
// concurrent signups for the same identity converge on one account.
//
// The Accounts service covers everything outside resolution: password
// registration and verification with bcrypt, profile updates,
// unlinking (refusing to remove the last authentication method) and
// account deletion.
package identity
