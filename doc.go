// Package authkit provides identity resolution and session token
// lifecycle management for Go applications.
//
// The server side resolves verified identity assertions (social
// providers or passwords) to accounts through a deterministic decision
// procedure (pkg/identity), mints and rotates token pairs
// (pkg/tokens), and exposes everything as a JSON API (modules/auth).
// The client side (pkg/authclient) holds the session: it stores the
// pair, attaches it to requests, coalesces refreshes and tracks
// session state.
//
// Storage backends are pluggable: in-memory stores for tests and
// single-process use, PostgreSQL (pkg/identity/pgstore) for accounts,
// Redis (tokens.RedisStore) for refresh tokens.
package authkit
