package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisRepoImpl struct {
	client *redis.Client
}

// NewRedisRepository keeps each entry under "storefront:<namespace>:<key>"
// without expiry.
func NewRedisRepository(client *redis.Client) KVRepository {
	return &redisRepoImpl{
		client: client,
	}
}

func (r *redisRepoImpl) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if err := checkKey(namespace, key); err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, redisKey(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *redisRepoImpl) Set(ctx context.Context, namespace, key string, value []byte) error {
	if err := checkKey(namespace, key); err != nil {
		return err
	}

	if err := r.client.Set(ctx, redisKey(namespace, key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *redisRepoImpl) Delete(ctx context.Context, namespace, key string) error {
	if err := checkKey(namespace, key); err != nil {
		return err
	}

	if err := r.client.Del(ctx, redisKey(namespace, key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func redisKey(namespace, key string) string {
	return fmt.Sprintf("storefront:%s:%s", namespace, key)
}
