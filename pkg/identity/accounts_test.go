package identity_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authkit/pkg/identity"
)

func newAccounts(store identity.Store) *identity.Accounts {
	return identity.NewAccounts(store, identity.WithBcryptCost(bcrypt.MinCost))
}

func TestAccountsRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates unverified password account", func(t *testing.T) {
		t.Parallel()

		store := identity.NewMemoryStore()
		accounts := newAccounts(store)

		account, err := accounts.Register(context.Background(), "User@Example.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", account.Email)
		assert.True(t, account.HasPassword())
		assert.False(t, account.EmailVerified)
		assert.Empty(t, account.Bindings)
	})

	t.Run("rejects short password", func(t *testing.T) {
		t.Parallel()

		accounts := newAccounts(identity.NewMemoryStore())

		_, err := accounts.Register(context.Background(), "user@example.com", "short")
		assert.ErrorIs(t, err, identity.ErrWeakPassword)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()

		store := identity.NewMemoryStore()
		accounts := newAccounts(store)

		_, err := accounts.Register(context.Background(), "user@example.com", "correct horse")
		require.NoError(t, err)

		_, err = accounts.Register(context.Background(), "user@example.com", "correct horse")
		assert.ErrorIs(t, err, identity.ErrEmailTaken)
	})
}

func TestAccountsVerifyPassword(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()

		store := identity.NewMemoryStore()
		accounts := newAccounts(store)
		created, err := accounts.Register(context.Background(), "user@example.com", "correct horse")
		require.NoError(t, err)

		account, err := accounts.VerifyPassword(context.Background(), "user@example.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, created.ID, account.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()

		store := identity.NewMemoryStore()
		accounts := newAccounts(store)
		_, err := accounts.Register(context.Background(), "user@example.com", "correct horse")
		require.NoError(t, err)

		_, err = accounts.VerifyPassword(context.Background(), "user@example.com", "wrong horse")
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()

		accounts := newAccounts(identity.NewMemoryStore())

		_, err := accounts.VerifyPassword(context.Background(), "nobody@example.com", "whatever1")
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})

	t.Run("social-only account has no password", func(t *testing.T) {
		t.Parallel()

		store := identity.NewMemoryStore()
		seedSocial(t, store, "google", "ext-1", "user@example.com")
		accounts := newAccounts(store)

		_, err := accounts.VerifyPassword(context.Background(), "user@example.com", "whatever1")
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})
}

func TestAccountsChangePassword(t *testing.T) {
	t.Parallel()

	t.Run("requires current password", func(t *testing.T) {
		t.Parallel()

		store := identity.NewMemoryStore()
		accounts := newAccounts(store)
		account, err := accounts.Register(context.Background(), "user@example.com", "correct horse")
		require.NoError(t, err)

		err = accounts.ChangePassword(context.Background(), account.ID, "wrong horse", "battery staple")
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

		require.NoError(t, accounts.ChangePassword(context.Background(), account.ID, "correct horse", "battery staple"))

		_, err = accounts.VerifyPassword(context.Background(), "user@example.com", "battery staple")
		assert.NoError(t, err)
	})

	t.Run("social-only account sets password directly", func(t *testing.T) {
		t.Parallel()

		store := identity.NewMemoryStore()
		account := seedSocial(t, store, "google", "ext-1", "user@example.com")
		accounts := newAccounts(store)

		require.NoError(t, accounts.ChangePassword(context.Background(), account.ID, "", "battery staple"))

		_, err := accounts.VerifyPassword(context.Background(), "user@example.com", "battery staple")
		assert.NoError(t, err)
	})

	t.Run("rejects weak replacement", func(t *testing.T) {
		t.Parallel()

		accounts := newAccounts(identity.NewMemoryStore())

		err := accounts.ChangePassword(context.Background(), uuid.New(), "correct horse", "short")
		assert.ErrorIs(t, err, identity.ErrWeakPassword)
	})
}

func TestAccountsUnbind(t *testing.T) {
	t.Parallel()

	t.Run("removes one of several methods", func(t *testing.T) {
		t.Parallel()

		store := identity.NewMemoryStore()
		account := seedSocial(t, store, "google", "ext-1", "user@example.com")
		require.NoError(t, store.AddBinding(context.Background(), account.ID, identity.Binding{
			Provider:   "kakao",
			ExternalID: "kakao-9",
		}))
		accounts := newAccounts(store)

		require.NoError(t, accounts.Unbind(context.Background(), account.ID, "kakao"))

		_, err := store.AccountByBinding(context.Background(), "kakao", "kakao-9")
		assert.ErrorIs(t, err, identity.ErrAccountNotFound)
	})

	t.Run("refuses to remove last method", func(t *testing.T) {
		t.Parallel()

		store := identity.NewMemoryStore()
		account := seedSocial(t, store, "google", "ext-1", "user@example.com")
		accounts := newAccounts(store)

		err := accounts.Unbind(context.Background(), account.ID, "google")
		assert.ErrorIs(t, err, identity.ErrLastAuthMethod)
	})
}

func TestAccountsDelete(t *testing.T) {
	t.Parallel()

	store := identity.NewMemoryStore()
	account := seedSocial(t, store, "google", "ext-1", "user@example.com")
	accounts := newAccounts(store)

	require.NoError(t, accounts.Delete(context.Background(), account.ID))

	_, err := store.AccountByID(context.Background(), account.ID)
	assert.ErrorIs(t, err, identity.ErrAccountNotFound)
	_, err = store.AccountByBinding(context.Background(), "google", "ext-1")
	assert.ErrorIs(t, err, identity.ErrAccountNotFound)
}

func TestAccountsVerifyEmail(t *testing.T) {
	t.Parallel()

	store := identity.NewMemoryStore()
	accounts := newAccounts(store)
	account, err := accounts.Register(context.Background(), "user@example.com", "correct horse")
	require.NoError(t, err)
	require.False(t, account.EmailVerified)

	require.NoError(t, accounts.VerifyEmail(context.Background(), account.ID))

	got, err := accounts.ByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
}
