package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/tokens"
)

type contextKey struct{ name string }

var claimsKey = contextKey{"auth claims"}

// ClaimsFromContext returns the access claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (tokens.AccessClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(tokens.AccessClaims)
	return claims, ok
}

// AccountIDFromContext returns the authenticated account's id.
func AccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	id, err := claims.AccountID()
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}

// RequireAuth verifies the Bearer access token and stores its claims
// in the request context. The three failure modes get distinct codes
// because the client reacts differently to each: only TOKEN_EXPIRED
// is worth a refresh.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, CodeTokenMissing, "missing bearer token")
			return
		}

		claims, err := s.issuer.Parse(token)
		if err != nil {
			if errors.Is(err, tokens.ErrAccessExpired) {
				writeError(w, http.StatusUnauthorized, CodeTokenExpired, "access token expired")
				return
			}
			writeError(w, http.StatusUnauthorized, CodeTokenInvalid, "access token invalid")
			return
		}
		if _, err := claims.AccountID(); err != nil {
			writeError(w, http.StatusUnauthorized, CodeTokenInvalid, "access token invalid")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// RequireVerifiedEmail refuses requests whose access token says the
// email is unverified. Verification state is a claim, so a stale token
// keeps answering EMAIL_NOT_VERIFIED until the session refreshes.
func RequireVerifiedEmail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, CodeTokenMissing, "missing bearer token")
			return
		}
		if !claims.EmailVerified {
			writeError(w, http.StatusForbidden, CodeEmailNotVerified, "email verification required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
