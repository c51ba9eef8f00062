// Package redis implements the store.KV interface on top of a Redis server.
// It is the primary driver in production deployments; the memory driver
// covers tests and the failover path.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/keyfold/keyfold/internal/auth/store"
)

// Connection timeouts keep a dead Redis from stalling request handling;
// the failover decorator needs errors quickly.
const (
	dialTimeout  = 5 * time.Second
	readTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second
)

// incrWithTTL increments a counter and arms the TTL only when this call
// created the key. Running as a script keeps the pair atomic and saves a
// round trip.
var incrWithTTLScript = goredis.NewScript(`
local value = redis.call('INCR', KEYS[1])
if value == 1 and tonumber(ARGV[1]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return value
`)

// Config holds the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// KV is a Redis-backed store.KV.
type KV struct {
	client *goredis.Client
}

var _ store.KV = (*KV)(nil)

// New creates a Redis driver. The connection is not verified here; call
// Ping to check reachability.
func New(cfg Config) *KV {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})
	return &KV{client: client}
}

func (kv *KV) Get(ctx context.Context, key string) (string, error) {
	val, err := kv.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, nil
}

func (kv *KV) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := kv.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (kv *KV) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	res, err := incrWithTTLScript.Run(ctx, kv.client, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis incr %q: %w", key, err)
	}
	return res, nil
}

func (kv *KV) GetDel(ctx context.Context, key string) (string, error) {
	val, err := kv.client.GetDel(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis getdel %q: %w", key, err)
	}
	return val, nil
}

func (kv *KV) Delete(ctx context.Context, key string) error {
	if err := kv.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

func (kv *KV) Ping(ctx context.Context) error {
	if err := kv.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (kv *KV) Close() error {
	return kv.client.Close()
}
