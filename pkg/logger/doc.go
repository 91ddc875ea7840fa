// Package logger builds configured log/slog loggers with environment presets
// and attribute helpers shared across the auth packages.
//
// Services in this module accept a *slog.Logger via functional options and
// default to the discarding Noop logger, so logging never becomes a hidden
// hard dependency:
//
//	log := logger.New(logger.WithProduction("authkit"))
//	resolver := identity.NewResolver(store, identity.WithLogger(log))
//
// The attribute helpers (Error, AccountID, Provider, ...) keep log keys
// consistent between the resolver, the token issuer and the HTTP layer.
package logger
