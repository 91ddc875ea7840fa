package tokens

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory RefreshStore for tests and single-process
// use. A background janitor drops expired records; Close stops it.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]RefreshRecord

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryStore creates a MemoryStore and starts its janitor.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]RefreshRecord),
		stop:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) Save(_ context.Context, hash string, record RefreshRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[hash] = record
	return nil
}

func (s *MemoryStore) Rotate(_ context.Context, hash string) (RefreshRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[hash]
	if !ok {
		return RefreshRecord{}, ErrRefreshNotFound
	}
	delete(s.records, hash)
	return record, nil
}

func (s *MemoryStore) Delete(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[hash]; !ok {
		return ErrRefreshNotFound
	}
	delete(s.records, hash)
	return nil
}

// Close stops the janitor. Idempotent.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for hash, record := range s.records {
				if now.After(record.ExpiresAt) {
					delete(s.records, hash)
				}
			}
			s.mu.Unlock()
		}
	}
}
