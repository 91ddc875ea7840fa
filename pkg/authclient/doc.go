// Package authclient is the client half of the session lifecycle: a
// controller that stores the token pair, attaches it to requests,
// refreshes expired sessions and tracks session state.
//
// Tokens live in two slots: a durable one ("remember me", typically
// file-backed) and an ephemeral one. The durable slot wins on boot and
// the slots never hold different pairs.
//
// Refreshing is deliberately conservative: concurrent expired requests
// share a single refresh flight, a fixed-window budget bounds how many
// flights may start, and the flight runs under its own timeout
// detached from any one caller's deadline. A rejected refresh token
// ends the session: both slots are cleared and the state machine drops
// to unauthenticated.
package authclient
