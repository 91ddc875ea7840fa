package authclient

import "github.com/dmitrymomot/authkit/pkg/statemachine"

// State is the controller's session state.
type State string

const (
	// StateUnauthenticated: no usable session.
	StateUnauthenticated State = "unauthenticated"

	// StateAuthenticated: a token pair is held and believed valid.
	StateAuthenticated State = "authenticated"

	// StateEmailVerificationRequired: the session is valid but the
	// server refuses protected resources until the email is verified.
	// Refreshing does not leave this state; only verification does.
	StateEmailVerificationRequired State = "email_verification_required"
)

// Event drives state transitions.
type Event string

const (
	EventLogin           Event = "login"
	EventLogout          Event = "logout"
	EventSessionExpired  Event = "session_expired"
	EventEmailUnverified Event = "email_unverified"
	EventEmailVerified   Event = "email_verified"
)

func newSessionMachine() *statemachine.Machine[State, Event] {
	return statemachine.New[State, Event](StateUnauthenticated).
		Add(StateUnauthenticated, EventLogin, StateAuthenticated).
		Add(StateUnauthenticated, EventEmailUnverified, StateEmailVerificationRequired).
		Add(StateAuthenticated, EventLogout, StateUnauthenticated).
		Add(StateAuthenticated, EventSessionExpired, StateUnauthenticated).
		Add(StateAuthenticated, EventEmailUnverified, StateEmailVerificationRequired).
		Add(StateAuthenticated, EventLogin, StateAuthenticated).
		Add(StateEmailVerificationRequired, EventEmailVerified, StateAuthenticated).
		Add(StateEmailVerificationRequired, EventLogout, StateUnauthenticated).
		Add(StateEmailVerificationRequired, EventSessionExpired, StateUnauthenticated).
		Add(StateEmailVerificationRequired, EventLogin, StateAuthenticated)
}
