package auth

import (
	"net/http"

	"github.com/dmitrymomot/authkit/pkg/identity"
)

// Stable error codes of the JSON API. UI layers dispatch on these;
// their meaning never changes between releases.
const (
	CodeAccountNotFound        = "ACCOUNT_NOT_FOUND"
	CodeAccountNotFoundNoEmail = "ACCOUNT_NOT_FOUND_NO_EMAIL"
	CodeEmailAlreadyExists     = "EMAIL_ALREADY_EXISTS"
	CodeNeedsManualLink        = "EMAIL_ACCOUNT_EXISTS_NEEDS_MANUAL_LINK"
	CodeSocialAlreadyLinked    = "SOCIAL_ALREADY_LINKED_ELSEWHERE"
	CodeInvalidProviderToken   = "INVALID_PROVIDER_TOKEN"
	CodeProviderUnavailable    = "PROVIDER_UNAVAILABLE"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeEmailNotVerified       = "EMAIL_NOT_VERIFIED"
	CodeTokenExpired           = "TOKEN_EXPIRED"
	CodeTokenInvalid           = "TOKEN_INVALID"
	CodeTokenMissing           = "TOKEN_MISSING"
	CodeRefreshInvalid         = "REFRESH_INVALID"
	CodeLastAuthMethod         = "LAST_AUTH_METHOD"
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeInternal               = "INTERNAL"
)

// conflictStatus maps resolver conflict reasons onto HTTP statuses:
// "nothing matched" is 404, "something else owns it" is 409.
func conflictStatus(reason identity.ConflictReason) int {
	switch reason {
	case identity.ReasonAccountNotFound, identity.ReasonAccountNotFoundNoEmail:
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}
