package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "authkit:refresh:"

// RedisStore is a RefreshStore backed by Redis. Rotation uses GETDEL
// so concurrent refreshes with the same token elect exactly one
// winner. Records expire with the key TTL.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a RedisStore on the given client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, hash string, record RefreshRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal refresh record: %w", err)
	}
	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, refreshKeyPrefix+hash, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh record: %w", err)
	}
	return nil
}

func (s *RedisStore) Rotate(ctx context.Context, hash string) (RefreshRecord, error) {
	payload, err := s.client.GetDel(ctx, refreshKeyPrefix+hash).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return RefreshRecord{}, ErrRefreshNotFound
		}
		return RefreshRecord{}, fmt.Errorf("rotate refresh record: %w", err)
	}

	var record RefreshRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return RefreshRecord{}, fmt.Errorf("unmarshal refresh record: %w", err)
	}
	return record, nil
}

func (s *RedisStore) Delete(ctx context.Context, hash string) error {
	n, err := s.client.Del(ctx, refreshKeyPrefix+hash).Result()
	if err != nil {
		return fmt.Errorf("delete refresh record: %w", err)
	}
	if n == 0 {
		return ErrRefreshNotFound
	}
	return nil
}
