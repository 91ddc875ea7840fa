package identity

import (
	"context"

	"github.com/google/uuid"
)

// Store persists accounts and provider bindings. Implementations must
// enforce two uniqueness constraints and surface their violation as
// the sentinel errors below:
//
//   - account email is unique across accounts (ErrEmailTaken)
//   - (provider, external id) is unique across bindings (ErrBindingTaken)
//
// Under concurrent writes these constraints are the arbiter: the
// resolver relies on the store rejecting the loser rather than on any
// lock of its own.
type Store interface {
	AccountByID(ctx context.Context, id uuid.UUID) (Account, error)
	AccountByEmail(ctx context.Context, email string) (Account, error)
	AccountByBinding(ctx context.Context, provider, externalID string) (Account, error)

	// CreateAccount persists a new account together with its initial
	// bindings in one atomic step.
	CreateAccount(ctx context.Context, account Account) error

	// AddBinding attaches a binding to an existing account.
	AddBinding(ctx context.Context, accountID uuid.UUID, binding Binding) error

	// RemoveBinding detaches a provider binding. It fails with
	// ErrLastAuthMethod when the binding is the account's only way
	// to authenticate.
	RemoveBinding(ctx context.Context, accountID uuid.UUID, provider string) error

	UpdateProfile(ctx context.Context, accountID uuid.UUID, nickname, avatarURL string) error
	UpdatePasswordHash(ctx context.Context, accountID uuid.UUID, hash []byte) error
	SetEmailVerified(ctx context.Context, accountID uuid.UUID, verified bool) error

	DeleteAccount(ctx context.Context, accountID uuid.UUID) error
}
