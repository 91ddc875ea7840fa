package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/sanitizer"
)

// CompleteSignup finishes a signup that was held pending for want of
// an email. The email is user-supplied, so the resulting account is
// created unverified regardless of what the provider reported.
//
// The operation is idempotent: if the pending identity was already
// bound (a retry, or a concurrent completion), the bound account is
// returned instead of an error.
func (r *Resolver) CompleteSignup(ctx context.Context, pending PendingProfile, email string) (Resolution, error) {
	if pending.Provider == "" || pending.ExternalID == "" {
		return Resolution{}, ErrInvalidAssertion
	}
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return Resolution{}, ErrMissingEmail
	}

	bound, err := r.store.AccountByBinding(ctx, pending.Provider, pending.ExternalID)
	switch {
	case err == nil:
		return authenticated(bound, false), nil
	case !errors.Is(err, ErrAccountNotFound):
		return Resolution{}, fmt.Errorf("lookup binding: %w", err)
	}

	account := Account{
		ID:            uuid.New(),
		Email:         email,
		Nickname:      pending.Nickname,
		AvatarURL:     pending.AvatarURL,
		Role:          RoleUser,
		EmailVerified: false,
		Bindings: []Binding{{
			Provider:   pending.Provider,
			ExternalID: pending.ExternalID,
			CreatedAt:  time.Now().UTC(),
		}},
		CreatedAt: time.Now().UTC(),
	}

	if err := r.store.CreateAccount(ctx, account); err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			return conflict(ReasonEmailAlreadyExists), nil
		case errors.Is(err, ErrBindingTaken):
			return r.rebind(ctx, Assertion{Provider: pending.Provider, ExternalID: pending.ExternalID}, nil)
		default:
			return Resolution{}, fmt.Errorf("create account: %w", err)
		}
	}

	r.log.InfoContext(ctx, "signup completed",
		logger.AccountID(account.ID),
		logger.Provider(pending.Provider))

	return authenticated(account, true), nil
}
