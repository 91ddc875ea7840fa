package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/sanitizer"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// AccountsOption configures an Accounts service.
type AccountsOption func(*Accounts)

// WithAccountsLogger sets the logger. Defaults to a no-op logger.
func WithAccountsLogger(log *slog.Logger) AccountsOption {
	return func(a *Accounts) {
		if log != nil {
			a.log = log
		}
	}
}

// WithBcryptCost overrides the bcrypt cost.
func WithBcryptCost(cost int) AccountsOption {
	return func(a *Accounts) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			a.cost = cost
		}
	}
}

// Accounts implements password authentication and account management
// on top of a Store.
type Accounts struct {
	store Store
	log   *slog.Logger
	cost  int
}

// NewAccounts creates an Accounts service backed by the given store.
func NewAccounts(store Store, opts ...AccountsOption) *Accounts {
	a := &Accounts{
		store: store,
		log:   logger.Noop(),
		cost:  bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Register creates a new account authenticated by email and password.
// The email is unverified until confirmed out of band.
func (a *Accounts) Register(ctx context.Context, email, password string) (Account, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return Account{}, ErrMissingEmail
	}
	if len(password) < MinPasswordLength {
		return Account{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	account := Account{
		ID:            uuid.New(),
		Email:         email,
		PasswordHash:  hash,
		Role:          RoleUser,
		EmailVerified: false,
		CreatedAt:     time.Now().UTC(),
	}
	if err := a.store.CreateAccount(ctx, account); err != nil {
		return Account{}, fmt.Errorf("create account: %w", err)
	}

	a.log.InfoContext(ctx, "password account created",
		logger.AccountID(account.ID),
		slog.String("email", sanitizer.MaskEmail(account.Email)))

	return account, nil
}

// VerifyPassword authenticates an email/password pair. Unknown emails,
// wrong passwords and accounts without a password all fail with
// ErrInvalidCredentials so the response does not leak which emails
// exist.
func (a *Accounts) VerifyPassword(ctx context.Context, email, password string) (Account, error) {
	email = sanitizer.NormalizeEmail(email)

	account, err := a.store.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Burn comparable time so lookups and mismatches are
			// indistinguishable by latency.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, fmt.Errorf("lookup email: %w", err)
	}
	if !account.HasPassword() {
		return Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// dummyHash is a valid bcrypt hash of an unguessable value, compared
// against when the email matches no account.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// ChangePassword sets a new password after verifying the current one.
// Accounts without a password (social-only) may set one directly with
// an empty current password.
func (a *Accounts) ChangePassword(ctx context.Context, accountID uuid.UUID, current, next string) error {
	if len(next) < MinPasswordLength {
		return ErrWeakPassword
	}

	account, err := a.store.AccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	if account.HasPassword() {
		if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(current)); err != nil {
			return ErrInvalidCredentials
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), a.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := a.store.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	a.log.InfoContext(ctx, "password changed", logger.AccountID(accountID))
	return nil
}

// UpdateProfile updates the account's nickname and avatar.
func (a *Accounts) UpdateProfile(ctx context.Context, accountID uuid.UUID, nickname, avatarURL string) (Account, error) {
	if err := a.store.UpdateProfile(ctx, accountID, nickname, avatarURL); err != nil {
		return Account{}, fmt.Errorf("update profile: %w", err)
	}
	account, err := a.store.AccountByID(ctx, accountID)
	if err != nil {
		return Account{}, fmt.Errorf("lookup account: %w", err)
	}
	return account, nil
}

// Unbind detaches a provider binding, refusing to strand the account
// without any way to authenticate.
func (a *Accounts) Unbind(ctx context.Context, accountID uuid.UUID, provider string) error {
	if err := a.store.RemoveBinding(ctx, accountID, provider); err != nil {
		return fmt.Errorf("remove binding: %w", err)
	}
	a.log.InfoContext(ctx, "identity unlinked",
		logger.AccountID(accountID),
		logger.Provider(provider))
	return nil
}

// VerifyEmail marks the account's email as verified.
func (a *Accounts) VerifyEmail(ctx context.Context, accountID uuid.UUID) error {
	if err := a.store.SetEmailVerified(ctx, accountID, true); err != nil {
		return fmt.Errorf("set email verified: %w", err)
	}
	return nil
}

// Delete removes the account and all its bindings.
func (a *Accounts) Delete(ctx context.Context, accountID uuid.UUID) error {
	if err := a.store.DeleteAccount(ctx, accountID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	a.log.InfoContext(ctx, "account deleted", logger.AccountID(accountID))
	return nil
}

// ByID loads an account.
func (a *Accounts) ByID(ctx context.Context, accountID uuid.UUID) (Account, error) {
	return a.store.AccountByID(ctx, accountID)
}
