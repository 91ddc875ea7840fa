package authclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrymomot/authkit/pkg/tokens"
)

// TokenStorage persists one token pair. Load reports ok=false when the
// slot is empty; Clear on an empty slot is a no-op.
type TokenStorage interface {
	Load() (pair tokens.Pair, ok bool, err error)
	Save(pair tokens.Pair) error
	Clear() error
}

// MemoryStorage keeps the pair in process memory. It backs the
// ephemeral slot: the session ends with the process.
type MemoryStorage struct {
	mu   sync.Mutex
	pair tokens.Pair
	set  bool
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Load() (tokens.Pair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair, s.set, nil
}

func (s *MemoryStorage) Save(pair tokens.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair, s.set = pair, true
	return nil
}

func (s *MemoryStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair, s.set = tokens.Pair{}, false
	return nil
}

// FileStorage keeps the pair as owner-only JSON on disk. It backs the
// durable slot used by "remember me" sessions.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

// NewFileStorage creates a FileStorage at path. Parent directories are
// created on first save.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) Load() (tokens.Pair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return tokens.Pair{}, false, nil
		}
		return tokens.Pair{}, false, fmt.Errorf("read token file: %w", err)
	}

	var pair tokens.Pair
	if err := json.Unmarshal(data, &pair); err != nil {
		// A corrupt file is treated as empty rather than bricking boot.
		return tokens.Pair{}, false, nil
	}
	if pair.AccessToken == "" && pair.RefreshToken == "" {
		return tokens.Pair{}, false, nil
	}
	return pair, true, nil
}

func (s *FileStorage) Save(pair tokens.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("marshal token pair: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func (s *FileStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
