package auth

import (
	"log/slog"

	"github.com/dmitrymomot/authkit/pkg/identity"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/provider"
	"github.com/dmitrymomot/authkit/pkg/tokens"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// Service wires the identity resolver, account management, the
// provider registry and the token issuer into the JSON API.
type Service struct {
	resolver  *identity.Resolver
	accounts  *identity.Accounts
	providers *provider.Registry
	issuer    *tokens.Issuer
	log       *slog.Logger
}

// NewService creates the auth service.
func NewService(
	resolver *identity.Resolver,
	accounts *identity.Accounts,
	providers *provider.Registry,
	issuer *tokens.Issuer,
	opts ...Option,
) *Service {
	s := &Service{
		resolver:  resolver,
		accounts:  accounts,
		providers: providers,
		issuer:    issuer,
		log:       logger.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
