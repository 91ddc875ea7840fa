package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/identity"
)

func TestCompleteSignup(t *testing.T) {
	t.Parallel()

	pending := identity.PendingProfile{
		Provider:   "kakao",
		ExternalID: "kakao-9",
		Nickname:   "kk",
		AvatarURL:  "https://img.example.com/a.png",
	}

	t.Run("creates unverified account", func(t *testing.T) {
		t.Parallel()

		store := identity.NewMemoryStore()
		resolver := identity.NewResolver(store)

		res, err := resolver.CompleteSignup(context.Background(), pending, "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, identity.KindAuthenticated, res.Kind)
		assert.True(t, res.IsNew)
		assert.Equal(t, "user@example.com", res.Account.Email)
		assert.False(t, res.Account.EmailVerified)
		assert.Equal(t, "kk", res.Account.Nickname)

		_, ok := res.Account.BindingFor("kakao")
		assert.True(t, ok)
	})

	t.Run("retry returns the already created account", func(t *testing.T) {
		t.Parallel()

		store := identity.NewMemoryStore()
		resolver := identity.NewResolver(store)

		first, err := resolver.CompleteSignup(context.Background(), pending, "user@example.com")
		require.NoError(t, err)
		require.True(t, first.IsNew)

		second, err := resolver.CompleteSignup(context.Background(), pending, "another@example.com")
		require.NoError(t, err)
		assert.Equal(t, identity.KindAuthenticated, second.Kind)
		assert.False(t, second.IsNew)
		assert.Equal(t, first.Account.ID, second.Account.ID)
	})

	t.Run("taken email conflicts", func(t *testing.T) {
		t.Parallel()

		store := identity.NewMemoryStore()
		seedSocial(t, store, "google", "ext-1", "user@example.com")
		resolver := identity.NewResolver(store)

		res, err := resolver.CompleteSignup(context.Background(), pending, "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, identity.KindConflict, res.Kind)
		assert.Equal(t, identity.ReasonEmailAlreadyExists, res.Reason)
	})

	t.Run("requires email", func(t *testing.T) {
		t.Parallel()

		resolver := identity.NewResolver(identity.NewMemoryStore())

		_, err := resolver.CompleteSignup(context.Background(), pending, "   ")
		assert.ErrorIs(t, err, identity.ErrMissingEmail)
	})

	t.Run("requires pending identity", func(t *testing.T) {
		t.Parallel()

		resolver := identity.NewResolver(identity.NewMemoryStore())

		_, err := resolver.CompleteSignup(context.Background(), identity.PendingProfile{}, "user@example.com")
		assert.ErrorIs(t, err, identity.ErrInvalidAssertion)
	})
}
