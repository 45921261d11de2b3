package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ultrapress:session:"

// RedisStore keeps conversations in Redis as JSON values with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps client. The store owns the client and closes it on
// Close.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Create implements Store.
func (s *RedisStore) Create(ctx context.Context, c *Conversation) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Version = 1

	val, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(c.ID), val, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("session: create: %w", err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

// Get implements Store. Reads refresh the TTL.
func (s *RedisStore) Get(ctx context.Context, id string) (*Conversation, error) {
	key := s.key(id)

	// GETEX reads and refreshes the TTL in one round trip (Redis >= 6.2).
	val, err := s.client.GetEx(ctx, key, s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}

	var c Conversation
	if err := json.Unmarshal(val, &c); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}

	return &c, nil
}

// Update implements Store with WATCH/MULTI/EXEC optimistic locking.
func (s *RedisStore) Update(ctx context.Context, c *Conversation) error {
	key := s.key(c.ID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var stored Conversation
		if err := json.Unmarshal(val, &stored); err != nil {
			return err
		}
		if stored.Version != c.Version {
			return ErrVersionConflict
		}

		next := c.Clone()
		next.Version++
		next.UpdatedAt = time.Now()

		newVal, err := json.Marshal(next)
		if err != nil {
			return err
		}

		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, s.ttl)
			return nil
		}); err != nil {
			return err
		}

		c.Version = next.Version
		c.UpdatedAt = next.UpdatedAt
		return nil
	}, key)

	switch {
	case err == nil, errors.Is(err, ErrNotFound), errors.Is(err, ErrVersionConflict):
		return err
	case errors.Is(err, redis.TxFailedErr):
		return ErrVersionConflict
	default:
		return fmt.Errorf("session: update: %w", err)
	}
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(id string) string {
	return redisKeyPrefix + id
}
