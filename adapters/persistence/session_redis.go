package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/labour-connect/internal/application/usecase/profile"
	"github.com/khoahotran/labour-connect/pkg/apperror"
)

const sessionKeyPrefix = "labour:session:"

// RedisSessionStore keeps edit sessions as JSON with a sliding TTL so a
// restart or a second replica sees the same draft.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func (s *RedisSessionStore) Get(ctx context.Context, userID string) (*profile.Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKeyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, profile.ErrSessionNotFound
		}
		return nil, apperror.NewInternal("failed to read edit session", err)
	}

	var sess profile.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, apperror.NewInternal("edit session is corrupt", err)
	}
	return &sess, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, sess *profile.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return apperror.NewInternal("failed to encode edit session", err)
	}
	if err := s.rdb.Set(ctx, sessionKeyPrefix+sess.UserID, raw, s.ttl).Err(); err != nil {
		return apperror.NewInternal("failed to write edit session", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, sessionKeyPrefix+userID).Err(); err != nil {
		return apperror.NewInternal("failed to drop edit session", err)
	}
	return nil
}
