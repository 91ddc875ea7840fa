package identity

// ConflictReason is a stable machine-readable code explaining why the
// resolver refused to authenticate. Codes are part of the public API
// contract and must not change meaning between releases.
type ConflictReason string

const (
	// ReasonAccountNotFound: login with an identity that matches no
	// binding and no account email.
	ReasonAccountNotFound ConflictReason = "ACCOUNT_NOT_FOUND"

	// ReasonAccountNotFoundNoEmail: login with an email-less assertion
	// that matches no binding, so no email fallback was possible.
	ReasonAccountNotFoundNoEmail ConflictReason = "ACCOUNT_NOT_FOUND_NO_EMAIL"

	// ReasonEmailAlreadyExists: signup or link would claim an email
	// already owned by another account.
	ReasonEmailAlreadyExists ConflictReason = "EMAIL_ALREADY_EXISTS"

	// ReasonNeedsManualLink: the asserted email belongs to an account
	// that must be linked explicitly, not attached automatically.
	ReasonNeedsManualLink ConflictReason = "EMAIL_ACCOUNT_EXISTS_NEEDS_MANUAL_LINK"

	// ReasonSocialAlreadyLinked: link would attach an external identity
	// that is already bound to a different account.
	ReasonSocialAlreadyLinked ConflictReason = "SOCIAL_ALREADY_LINKED_ELSEWHERE"
)
