package imagestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"qbank-admin/pkg/staging"
)

const redisPrefix = "staging:image:"

// RedisStore shares staged images between backend instances. Each image is a
// hash with the content type and the raw bytes.
type RedisStore struct {
	rdb *redis.Client
}

var _ Store = &RedisStore{}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, index int, img Image, ttl time.Duration) error {
	k := redisPrefix + key(sessionID, index)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, k, "contentType", img.ContentType, "data", img.Data)
	if ttl > 0 {
		pipe.Expire(ctx, k, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save staged image %s: %w", k, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string, index int) (Image, error) {
	k := redisPrefix + key(sessionID, index)
	vals, err := s.rdb.HMGet(ctx, k, "contentType", "data").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Image{}, staging.ErrImageNotFound
		}
		return Image{}, fmt.Errorf("get staged image %s: %w", k, err)
	}
	data, ok := vals[1].(string)
	if !ok {
		return Image{}, staging.ErrImageNotFound
	}
	ct, _ := vals[0].(string)
	return Image{ContentType: ct, Data: []byte(data)}, nil
}

func (s *RedisStore) Purge(ctx context.Context, sessionID string) (int, error) {
	var (
		cursor uint64
		n      int
	)
	match := redisPrefix + sessionID + ":*"
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return n, fmt.Errorf("scan staged images: %w", err)
		}
		if len(keys) > 0 {
			deleted, err := s.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return n, fmt.Errorf("delete staged images: %w", err)
			}
			n += int(deleted)
		}
		cursor = next
		if cursor == 0 {
			return n, nil
		}
	}
}
