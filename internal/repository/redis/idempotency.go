package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mshra/Multi-Vendor-Service/internal/repository"
)

var _ repository.IdempotencyStore = (*redisIdempotency)(nil)

const (
	lockKeyPrefix = "fetch:dispatch:"
	lockTTL       = 10 * time.Minute
)

type redisIdempotency struct {
	client *goredis.Client
}

// NewRedisIdempotencyStore creates a Redis-backed idempotency store using SETNX.
func NewRedisIdempotencyStore(client *goredis.Client) repository.IdempotencyStore {
	return &redisIdempotency{client: client}
}

// AcquireLock uses Redis SETNX to atomically acquire a dispatch lock.
func (r *redisIdempotency) AcquireLock(ctx context.Context, requestID uuid.UUID) (bool, error) {
	key := lockKeyPrefix + requestID.String()
	ok, err := r.client.SetNX(ctx, key, time.Now().Unix(), lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis: acquire lock: %w", err)
	}
	return ok, nil
}

// ReleaseLock sets a TTL on the lock key for eventual cleanup.
func (r *redisIdempotency) ReleaseLock(ctx context.Context, requestID uuid.UUID) error {
	key := lockKeyPrefix + requestID.String()
	return r.client.Expire(ctx, key, lockTTL).Err()
}
