package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/authkit/pkg/identity"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/provider"
	"github.com/dmitrymomot/authkit/pkg/tokens"
)

type sessionResponse struct {
	tokens.Pair
	IsNewAccount bool             `json:"is_new_account"`
	Account      identity.Account `json:"account"`
}

type needsEmailResponse struct {
	NeedsEmail bool                    `json:"needs_email"`
	Pending    identity.PendingProfile `json:"pending"`
}

func (s *Service) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.ErrorContext(r.Context(), "request failed",
		slog.String("path", r.URL.Path),
		logger.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}

func (s *Service) issueSession(w http.ResponseWriter, r *http.Request, account identity.Account, isNew bool) {
	pair, err := s.issuer.Issue(r.Context(), account)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Pair:         pair,
		IsNewAccount: isNew,
		Account:      account,
	})
}

// handleLogin authenticates an email/password pair.
func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := s.accounts.VerifyPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, CodeInvalidCredentials, "invalid email or password")
			return
		}
		s.internalError(w, r, err)
		return
	}
	s.issueSession(w, r, account, false)
}

// handleRegister creates a password account.
func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := s.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailTaken):
			writeError(w, http.StatusConflict, CodeEmailAlreadyExists, "email already registered")
		case errors.Is(err, identity.ErrMissingEmail), errors.Is(err, identity.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		default:
			s.internalError(w, r, err)
		}
		return
	}
	s.issueSession(w, r, account, true)
}

// handleSocial exchanges a provider token for a session under the
// declared intent.
func (s *Service) handleSocial(w http.ResponseWriter, r *http.Request) {
	p, err := s.providers.Get(chi.URLParam(r, "provider"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "unknown provider")
		return
	}

	var req struct {
		Token  string `json:"token"`
		Intent string `json:"intent"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	intent, err := identity.ParseIntent(req.Intent)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "intent must be login, signup or link")
		return
	}

	assertion, err := p.VerifyAndFetch(r.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrInvalidToken):
			writeError(w, http.StatusUnauthorized, CodeInvalidProviderToken, "provider rejected the token")
		case errors.Is(err, provider.ErrUnavailable):
			writeError(w, http.StatusBadGateway, CodeProviderUnavailable, "provider is unavailable, retry later")
		default:
			s.internalError(w, r, err)
		}
		return
	}

	var current *identity.Account
	if intent == identity.IntentLink {
		account, ok := s.authenticatedAccount(w, r)
		if !ok {
			return
		}
		current = &account
	}

	res, err := s.resolver.Resolve(r.Context(), assertion, intent, current)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeResolution(w, r, res, assertion)
}

// handleCompleteSignup finishes a signup that stalled on a missing
// email.
func (s *Service) handleCompleteSignup(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	if _, err := s.providers.Get(providerName); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "unknown provider")
		return
	}

	var req struct {
		ExternalID string `json:"external_id"`
		Email      string `json:"email"`
		Nickname   string `json:"nickname"`
		AvatarURL  string `json:"avatar_url"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	pending := identity.PendingProfile{
		Provider:   providerName,
		ExternalID: req.ExternalID,
		Nickname:   req.Nickname,
		AvatarURL:  req.AvatarURL,
	}
	res, err := s.resolver.CompleteSignup(r.Context(), pending, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrMissingEmail), errors.Is(err, identity.ErrInvalidAssertion):
			writeError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		default:
			s.internalError(w, r, err)
		}
		return
	}
	s.writeResolution(w, r, res, identity.Assertion{
		Provider:   pending.Provider,
		ExternalID: pending.ExternalID,
		Email:      req.Email,
		Nickname:   pending.Nickname,
		AvatarURL:  pending.AvatarURL,
	})
}

// writeResolution maps a resolver verdict onto the wire.
func (s *Service) writeResolution(w http.ResponseWriter, r *http.Request, res identity.Resolution, assertion identity.Assertion) {
	switch res.Kind {
	case identity.KindAuthenticated:
		s.issueSession(w, r, res.Account, res.IsNew)
	case identity.KindNeedsEmail:
		writeJSON(w, http.StatusOK, needsEmailResponse{NeedsEmail: true, Pending: res.Pending})
	case identity.KindConflict:
		writeConflict(w, conflictStatus(res.Reason), string(res.Reason), map[string]string{
			"provider":    assertion.Provider,
			"external_id": assertion.ExternalID,
			"email":       assertion.Email,
			"nickname":    assertion.Nickname,
			"avatar_url":  assertion.AvatarURL,
		})
	default:
		s.internalError(w, r, errors.New("unhandled resolution kind"))
	}
}

// handleRefresh rotates a refresh token.
func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := s.issuer.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, tokens.ErrRefreshInvalid) {
			writeError(w, http.StatusUnauthorized, CodeRefreshInvalid, "refresh token is invalid or already used")
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// handleLogout revokes the presented refresh token.
func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	if err := s.issuer.Revoke(r.Context(), req.RefreshToken); err != nil {
		s.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMe returns the authenticated account.
func (s *Service) handleMe(w http.ResponseWriter, r *http.Request) {
	account, ok := s.authenticatedAccountFromContext(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// handleUpdateProfile updates nickname and avatar.
func (s *Service) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeTokenMissing, "missing bearer token")
		return
	}

	var req struct {
		Nickname  string `json:"nickname"`
		AvatarURL string `json:"avatar_url"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := s.accounts.UpdateProfile(r.Context(), accountID, req.Nickname, req.AvatarURL)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, CodeAccountNotFound, "account not found")
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// handleChangePassword sets a new password.
func (s *Service) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	accountID, ok := AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeTokenMissing, "missing bearer token")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	err := s.accounts.ChangePassword(r.Context(), accountID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, CodeInvalidCredentials, "current password does not match")
		case errors.Is(err, identity.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		default:
			s.internalError(w, r, err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUnlink detaches a provider binding.
func (s *Service) handleUnlink(w http.ResponseWriter, r *http.Request) {
	accountID, ok := AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeTokenMissing, "missing bearer token")
		return
	}

	err := s.accounts.Unbind(r.Context(), accountID, chi.URLParam(r, "provider"))
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrLastAuthMethod):
			writeError(w, http.StatusConflict, CodeLastAuthMethod, "cannot remove the last authentication method")
		case errors.Is(err, identity.ErrBindingNotFound):
			writeError(w, http.StatusBadRequest, CodeInvalidRequest, "provider is not linked")
		case errors.Is(err, identity.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, CodeAccountNotFound, "account not found")
		default:
			s.internalError(w, r, err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteAccount removes the account.
func (s *Service) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeTokenMissing, "missing bearer token")
		return
	}

	if err := s.accounts.Delete(r.Context(), accountID); err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, CodeAccountNotFound, "account not found")
			return
		}
		s.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authenticatedAccount authenticates the request inline, for routes
// that are only conditionally authenticated (link intent).
func (s *Service) authenticatedAccount(w http.ResponseWriter, r *http.Request) (identity.Account, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, CodeTokenMissing, "link requires authentication")
		return identity.Account{}, false
	}
	claims, err := s.issuer.Parse(token)
	if err != nil {
		if errors.Is(err, tokens.ErrAccessExpired) {
			writeError(w, http.StatusUnauthorized, CodeTokenExpired, "access token expired")
		} else {
			writeError(w, http.StatusUnauthorized, CodeTokenInvalid, "access token invalid")
		}
		return identity.Account{}, false
	}
	return s.loadAccount(w, r, claims)
}

func (s *Service) authenticatedAccountFromContext(w http.ResponseWriter, r *http.Request) (identity.Account, bool) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeTokenMissing, "missing bearer token")
		return identity.Account{}, false
	}
	return s.loadAccount(w, r, claims)
}

func (s *Service) loadAccount(w http.ResponseWriter, r *http.Request, claims tokens.AccessClaims) (identity.Account, bool) {
	id, err := claims.AccountID()
	if err != nil {
		writeError(w, http.StatusUnauthorized, CodeTokenInvalid, "access token invalid")
		return identity.Account{}, false
	}
	account, err := s.accounts.ByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			writeError(w, http.StatusUnauthorized, CodeTokenInvalid, "account no longer exists")
			return identity.Account{}, false
		}
		s.internalError(w, r, err)
		return identity.Account{}, false
	}
	return account, true
}
