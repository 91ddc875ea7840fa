package identity_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/authkit/pkg/identity"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) AccountByID(ctx context.Context, id uuid.UUID) (identity.Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(identity.Account), args.Error(1)
}

func (m *mockStore) AccountByEmail(ctx context.Context, email string) (identity.Account, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(identity.Account), args.Error(1)
}

func (m *mockStore) AccountByBinding(ctx context.Context, provider, externalID string) (identity.Account, error) {
	args := m.Called(ctx, provider, externalID)
	return args.Get(0).(identity.Account), args.Error(1)
}

func (m *mockStore) CreateAccount(ctx context.Context, account identity.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *mockStore) AddBinding(ctx context.Context, accountID uuid.UUID, binding identity.Binding) error {
	args := m.Called(ctx, accountID, binding)
	return args.Error(0)
}

func (m *mockStore) RemoveBinding(ctx context.Context, accountID uuid.UUID, provider string) error {
	args := m.Called(ctx, accountID, provider)
	return args.Error(0)
}

func (m *mockStore) UpdateProfile(ctx context.Context, accountID uuid.UUID, nickname, avatarURL string) error {
	args := m.Called(ctx, accountID, nickname, avatarURL)
	return args.Error(0)
}

func (m *mockStore) UpdatePasswordHash(ctx context.Context, accountID uuid.UUID, hash []byte) error {
	args := m.Called(ctx, accountID, hash)
	return args.Error(0)
}

func (m *mockStore) SetEmailVerified(ctx context.Context, accountID uuid.UUID, verified bool) error {
	args := m.Called(ctx, accountID, verified)
	return args.Error(0)
}

func (m *mockStore) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}
