package authclient

import "time"

// Config holds controller settings, loadable from the environment.
type Config struct {
	// BaseURL is the auth server's base URL, e.g. "https://api.example.com".
	BaseURL string `env:"AUTH_CLIENT_BASE_URL"`

	// RefreshTimeout bounds one refresh round trip independently of
	// the caller's request deadline.
	RefreshTimeout time.Duration `env:"AUTH_CLIENT_REFRESH_TIMEOUT" envDefault:"10s"`

	// RefreshBudget caps refresh attempts within RefreshWindow.
	RefreshBudget int           `env:"AUTH_CLIENT_REFRESH_BUDGET" envDefault:"5"`
	RefreshWindow time.Duration `env:"AUTH_CLIENT_REFRESH_WINDOW" envDefault:"1m"`
}
