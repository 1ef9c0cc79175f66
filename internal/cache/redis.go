package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// tagSetTTL bounds how long a tag's member set is retained. It must outlive
// every entry TTL used by the services so invalidation never misses a live key.
const tagSetTTL = 24 * time.Hour

// Redis is a Store backed by a shared Redis instance, for deployments running
// more than one replica of the service.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

type RedisOption func(*Redis)

func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

func NewRedis(rdb *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{rdb: rdb, prefix: "dashboard:cache"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) entryKey(key string) string {
	return r.prefix + ":entry:" + key
}

func (r *Redis) tagKey(tag string) string {
	return r.prefix + ":tag:" + tag
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.rdb.Get(ctx, r.entryKey(key)).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.entryKey(key), value, ttl)
		for _, tag := range tags {
			pipe.SAdd(ctx, r.tagKey(tag), r.entryKey(key))
			pipe.Expire(ctx, r.tagKey(tag), tagSetTTL)
		}
		return nil
	})
	return err
}

func (r *Redis) Invalidate(ctx context.Context, tags ...string) error {
	var errs []error
	for _, tag := range tags {
		keys, err := r.rdb.SMembers(ctx, r.tagKey(tag)).Result()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		keys = append(keys, r.tagKey(tag))
		if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
