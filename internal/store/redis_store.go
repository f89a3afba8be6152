package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"devlink/internal/domain"
)

// RedisStore keeps keys in redis under a per-installation prefix.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisClient returns a client for addr. It does not dial until first use.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisStore returns a store writing through client with keys prefixed by prefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Compile-time assertion that RedisStore implements domain.KeyValueStore.
var _ domain.KeyValueStore = (*RedisStore)(nil)
