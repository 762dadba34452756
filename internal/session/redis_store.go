package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix    = "audit:session:"
	maxUpdateAttempts = 5
)

// ConnectRedis accepts either a redis:// URL or a bare host:port.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisStore shares sessions across server instances. Update uses
// WATCH/MULTI so concurrent writers never overwrite each other.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Create(ctx context.Context, s State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, redisKeyPrefix+s.ID, raw, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (State, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, ErrNotFound
		}
		return State{}, err
	}
	return decodeState(raw)
}

func (r *RedisStore) Update(ctx context.Context, id string, fn UpdateFunc) (State, error) {
	key := redisKeyPrefix + id
	var out State
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		cur, err := decodeState(raw)
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			out = cur
			return err
		}
		blob, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, blob, r.ttl)
			return nil
		})
		if err == nil {
			out = next
		}
		return err
	}
	for i := 0; i < maxUpdateAttempts; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return out, err
	}
	return State{}, fmt.Errorf("update session %s: %w", id, ErrVersionConflict)
}
