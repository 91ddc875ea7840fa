package authclient

import "errors"

var (
	// ErrNotAuthenticated is returned when an authenticated request is
	// attempted with no session.
	ErrNotAuthenticated = errors.New("authclient: not authenticated")

	// ErrSessionExpired is returned when the refresh token was rejected
	// and the session cannot be recovered without a new login.
	ErrSessionExpired = errors.New("authclient: session expired")

	// ErrEmailNotVerified is returned when the server requires email
	// verification before serving the request.
	ErrEmailNotVerified = errors.New("authclient: email not verified")

	// ErrRefreshBudgetExceeded is returned when the refresh budget for
	// the current window is spent.
	ErrRefreshBudgetExceeded = errors.New("authclient: refresh budget exceeded")

	// ErrMissingBaseURL is returned when the controller is configured
	// without a server base URL.
	ErrMissingBaseURL = errors.New("authclient: base url is required")
)
