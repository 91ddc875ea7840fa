package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type bindingKey struct {
	provider   string
	externalID string
}

// MemoryStore is an in-memory Store for tests and single-process use.
// It enforces the same uniqueness constraints a SQL implementation
// enforces with unique indexes.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]Account
	emailIdx map[string]uuid.UUID
	bindIdx  map[bindingKey]uuid.UUID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[uuid.UUID]Account),
		emailIdx: make(map[string]uuid.UUID),
		bindIdx:  make(map[bindingKey]uuid.UUID),
	}
}

func cloneAccount(a Account) Account {
	out := a
	if a.PasswordHash != nil {
		out.PasswordHash = append([]byte(nil), a.PasswordHash...)
	}
	if a.Bindings != nil {
		out.Bindings = append([]Binding(nil), a.Bindings...)
	}
	return out
}

func (s *MemoryStore) AccountByID(_ context.Context, id uuid.UUID) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (s *MemoryStore) AccountByEmail(_ context.Context, email string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if email == "" {
		return Account{}, ErrAccountNotFound
	}
	id, ok := s.emailIdx[email]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return cloneAccount(s.byID[id]), nil
}

func (s *MemoryStore) AccountByBinding(_ context.Context, provider, externalID string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bindIdx[bindingKey{provider, externalID}]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return cloneAccount(s.byID[id]), nil
}

func (s *MemoryStore) CreateAccount(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if account.Email != "" {
		if _, taken := s.emailIdx[account.Email]; taken {
			return ErrEmailTaken
		}
	}
	for _, b := range account.Bindings {
		if _, taken := s.bindIdx[bindingKey{b.Provider, b.ExternalID}]; taken {
			return ErrBindingTaken
		}
	}

	s.byID[account.ID] = cloneAccount(account)
	if account.Email != "" {
		s.emailIdx[account.Email] = account.ID
	}
	for _, b := range account.Bindings {
		s.bindIdx[bindingKey{b.Provider, b.ExternalID}] = account.ID
	}
	return nil
}

func (s *MemoryStore) AddBinding(_ context.Context, accountID uuid.UUID, binding Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	key := bindingKey{binding.Provider, binding.ExternalID}
	if _, taken := s.bindIdx[key]; taken {
		return ErrBindingTaken
	}

	a.Bindings = append(append([]Binding(nil), a.Bindings...), binding)
	s.byID[accountID] = a
	s.bindIdx[key] = accountID
	return nil
}

func (s *MemoryStore) RemoveBinding(_ context.Context, accountID uuid.UUID, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[accountID]
	if !ok {
		return ErrAccountNotFound
	}

	idx := -1
	for i, b := range a.Bindings {
		if b.Provider == provider {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrBindingNotFound
	}
	if a.AuthMethodCount() <= 1 {
		return ErrLastAuthMethod
	}

	removed := a.Bindings[idx]
	a.Bindings = append(append([]Binding(nil), a.Bindings[:idx]...), a.Bindings[idx+1:]...)
	s.byID[accountID] = a
	delete(s.bindIdx, bindingKey{removed.Provider, removed.ExternalID})
	return nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, accountID uuid.UUID, nickname, avatarURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	a.Nickname = nickname
	a.AvatarURL = avatarURL
	s.byID[accountID] = a
	return nil
}

func (s *MemoryStore) UpdatePasswordHash(_ context.Context, accountID uuid.UUID, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	a.PasswordHash = append([]byte(nil), hash...)
	s.byID[accountID] = a
	return nil
}

func (s *MemoryStore) SetEmailVerified(_ context.Context, accountID uuid.UUID, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	a.EmailVerified = verified
	s.byID[accountID] = a
	return nil
}

func (s *MemoryStore) DeleteAccount(_ context.Context, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	if a.Email != "" {
		delete(s.emailIdx, a.Email)
	}
	for _, b := range a.Bindings {
		delete(s.bindIdx, bindingKey{b.Provider, b.ExternalID})
	}
	delete(s.byID, accountID)
	return nil
}
