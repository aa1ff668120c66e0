package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultRedisKey is the key holding the session record.
const DefaultRedisKey = "agrodash:session"

// RedisStore persists the session as a JSON value under a single redis key,
// letting several hosts share one login.
type RedisStore struct {
	rdb redis.UniversalClient
	key string
	ttl time.Duration
}

// NewRedisStore creates a redis backed session store. An empty key uses
// DefaultRedisKey and a zero ttl keeps the record until Clear.
func NewRedisStore(rdb redis.UniversalClient, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}

	data, err := json.Marshal(stamp(sess))
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.rdb.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (s *RedisStore) Load(ctx context.Context) (*Session, error) {
	return s.get(ctx, s.rdb)
}

// Patch merges fields under WATCH so a concurrent Save or Clear aborts the update.
func (s *RedisStore) Patch(ctx context.Context, p Patch) error {
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		sess, err := s.get(ctx, tx)
		if err != nil {
			if errors.Is(err, ErrNoSession) {
				log.Debug().Str("key", s.key).Msg("no session to patch")
				return nil
			}
			return err
		}

		sess.Apply(p)

		data, err := json.Marshal(stamp(sess))
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, redis.KeepTTL)
			return nil
		})
		return err
	}, s.key)
	if err != nil {
		return fmt.Errorf("failed to patch session: %w", err)
	}

	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// getter is satisfied by both the client and a WATCH transaction.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) get(ctx context.Context, cmd getter) (*Session, error) {
	data, err := cmd.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}

	if sess.Permissions == nil {
		sess.Permissions = []string{}
	}

	return &sess, nil
}
