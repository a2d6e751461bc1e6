package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/bookshelf/internal/client/session"
)

const redisKeyPrefix = "bookshelf:session:"

const (
	fieldAccess  = "access_token"
	fieldRefresh = "refresh_token"
	fieldExpires = "expires_at_ms"
	fieldSalt    = "salt"
)

// RedisStore keeps the session of one origin in a Redis hash.
type RedisStore struct {
	rdb    redis.UniversalClient
	key    string
	sealer *sealer
}

// OpenRedis connects using a redis:// URL and checks the connection.
func OpenRedis(ctx context.Context, dsn, origin, secret string) (*RedisStore, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStore(rdb, origin, secret), nil
}

func NewRedisStore(rdb redis.UniversalClient, origin, secret string) *RedisStore {
	return &RedisStore{rdb: rdb, key: redisKeyPrefix + origin, sealer: newSealer(secret)}
}

func (r *RedisStore) Persist(ctx context.Context, snap session.Snapshot) error {
	if snap.IsZero() {
		if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
			return fmt.Errorf("failed to delete session[%s]: %w", r.key, err)
		}
		return nil
	}

	existing, err := r.rdb.HGet(ctx, r.key, fieldSalt).Bytes()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read salt[%s]: %w", r.key, err)
	}

	salt := r.sealer.salt(existing)
	access, err := r.sealer.seal(salt, snap.AccessToken)
	if err != nil {
		return err
	}
	refresh, err := r.sealer.seal(salt, snap.RefreshToken)
	if err != nil {
		return err
	}

	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.key)
		p.HSet(ctx, r.key, map[string]any{
			fieldAccess:  access,
			fieldRefresh: refresh,
			fieldExpires: toMillis(snap.ExpiresAt),
			fieldSalt:    salt,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist session[%s]: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context) (session.Snapshot, error) {
	fields, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("failed to load session[%s]: %w", r.key, err)
	}
	if len(fields) == 0 {
		return session.Snapshot{}, nil
	}

	salt := []byte(fields[fieldSalt])
	access, err := r.sealer.open(salt, []byte(fields[fieldAccess]))
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("failed to open session[%s]: %w", r.key, err)
	}
	refresh, err := r.sealer.open(salt, []byte(fields[fieldRefresh]))
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("failed to open session[%s]: %w", r.key, err)
	}

	var ms int64
	if v := fields[fieldExpires]; v != "" {
		if ms, err = strconv.ParseInt(v, 10, 64); err != nil {
			return session.Snapshot{}, fmt.Errorf("failed to parse expiry[%s]: %w", r.key, err)
		}
	}

	return session.Snapshot{AccessToken: access, RefreshToken: refresh, ExpiresAt: fromMillis(ms)}, nil
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
