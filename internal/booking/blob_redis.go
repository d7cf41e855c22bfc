package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBlobStore keeps the serialized booking collection under a single
// Redis key. No TTL: bookings are durable until cancelled.
type RedisBlobStore struct {
	client *redis.Client
	key    string
}

// NewRedisBlobStore creates a Redis-backed blob store.
func NewRedisBlobStore(client *redis.Client, key string) *RedisBlobStore {
	if client == nil {
		return nil
	}
	if key == "" {
		key = "consultation_bookings"
	}
	return &RedisBlobStore{client: client, key: key}
}

// Read returns the stored blob or ErrBlobNotFound when the key is absent.
func (s *RedisBlobStore) Read(ctx context.Context) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("booking: redis get %s: %w", s.key, err)
	}
	return raw, nil
}

// Write replaces the stored blob wholesale.
func (s *RedisBlobStore) Write(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("booking: redis set %s: %w", s.key, err)
	}
	return nil
}

var _ BlobStore = (*RedisBlobStore)(nil)
