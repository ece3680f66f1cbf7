package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/labour-connect/internal/application/service"
	"github.com/khoahotran/labour-connect/pkg/apperror"
)

const revokedKeyPrefix = "labour:revoked:"

type redisTokenDenylist struct {
	rdb *redis.Client
}

func NewRedisTokenDenylist(rdb *redis.Client) service.TokenRevoker {
	return &redisTokenDenylist{rdb: rdb}
}

func (d *redisTokenDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := d.rdb.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return apperror.NewInternal("failed to revoke token", err)
	}
	return nil
}

func (d *redisTokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, apperror.NewInternal("failed to check token", err)
	}
	return n > 0, nil
}

// memoryTokenDenylist is used when no Redis is configured.
type memoryTokenDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryTokenDenylist() service.TokenRevoker {
	return &memoryTokenDenylist{revoked: make(map[string]time.Time), now: time.Now}
}

func (d *memoryTokenDenylist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[tokenID] = d.now().Add(ttl)
	return nil
}

func (d *memoryTokenDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	until, ok := d.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if d.now().After(until) {
		delete(d.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
