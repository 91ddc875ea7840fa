package identity

import (
	"time"

	"github.com/google/uuid"
)

// Account roles. New accounts start as RoleUser.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account is a resolved user account. Email is empty when the account
// was created from a provider assertion that carried no email and the
// signup has not been completed yet.
type Account struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email,omitempty"`
	PasswordHash  []byte    `json:"-"`
	Nickname      string    `json:"nickname,omitempty"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	Bindings      []Binding `json:"bindings,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasPassword reports whether the account can authenticate with a password.
func (a Account) HasPassword() bool {
	return len(a.PasswordHash) > 0
}

// HasEmail reports whether the account has an email on record.
func (a Account) HasEmail() bool {
	return a.Email != ""
}

// BindingFor returns the binding for the given provider, if any.
func (a Account) BindingFor(provider string) (Binding, bool) {
	for _, b := range a.Bindings {
		if b.Provider == provider {
			return b, true
		}
	}
	return Binding{}, false
}

// AuthMethodCount returns the number of distinct ways the account can
// authenticate: each provider binding counts as one, a set password
// counts as one.
func (a Account) AuthMethodCount() int {
	n := len(a.Bindings)
	if a.HasPassword() {
		n++
	}
	return n
}

// Binding links an account to an external identity at a provider.
// The (Provider, ExternalID) pair is globally unique.
type Binding struct {
	Provider              string    `json:"provider"`
	ExternalID            string    `json:"external_id"`
	ProviderEmail         string    `json:"provider_email,omitempty"`
	ProviderEmailVerified bool      `json:"provider_email_verified"`
	CreatedAt             time.Time `json:"created_at"`
}

// Assertion is a verified claim from an identity provider or from
// password verification. It is the resolver's sole input describing
// who the caller is.
type Assertion struct {
	// Provider names the source of the assertion, e.g. "google",
	// "kakao" or "password".
	Provider string

	// ExternalID is the provider's stable identifier for the subject.
	ExternalID string

	// Email is the subject's email as reported by the provider.
	// Empty when the provider did not share one.
	Email string

	// EmailVerified reports whether the provider vouches for the
	// email. Nil when the provider gave no signal either way.
	EmailVerified *bool

	// Nickname and AvatarURL seed the profile of a newly created
	// account. Both optional.
	Nickname  string
	AvatarURL string
}

// PendingProfile carries the provider data held aside while a signup
// waits for the user to supply an email address. It round-trips
// through the client so CompleteSignup can finish account creation.
type PendingProfile struct {
	Provider   string `json:"provider"`
	ExternalID string `json:"external_id"`
	Nickname   string `json:"nickname,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}
