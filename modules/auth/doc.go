// Package auth exposes the identity and token lifecycle as a JSON API
// on chi: password login and registration, the social exchange
// endpoint driven by intent (login, signup, link), signup completion
// for email-less providers, refresh rotation, logout, and the
// authenticated account surface (me, profile, password, unlink,
// delete).
//
// Every failure carries a stable machine-readable code in a flat
// {"code": ...} envelope; clients dispatch on the code, not on prose.
package auth
