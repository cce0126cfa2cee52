// Package redis adapts a Redis server to the core.Cache port. It is a
// drop-in replacement for the in-memory cache when review responses
// should survive restarts or be shared across instances.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adionit7/devstarter/core"
)

const defaultTimeout = 3 * time.Second

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

type Adapter struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ core.Cache = (*Adapter)(nil)

func New(config Config) *Adapter {
	if config.Prefix == "" {
		config.Prefix = "devstarter:"
	}
	if config.TTL == 0 {
		config.TTL = 5 * time.Minute
	}

	return &Adapter{
		client: redis.NewClient(&redis.Options{
			Addr:         config.Addr,
			Password:     config.Password,
			DB:           config.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  defaultTimeout,
			WriteTimeout: defaultTimeout,
		}),
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// Ping verifies connectivity. Call it once at startup so a bad address
// fails fast instead of on the first cache access.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

func (a *Adapter) Get(key string) ([]byte, error) {
	ctx, cancel := a.opContext()
	defer cancel()

	value, err := a.client.Get(ctx, a.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrCacheMiss
	}
	if err != nil {
		// A flaky cache must not break the caller; report it as a miss.
		return nil, core.ErrCacheMiss
	}
	return value, nil
}

func (a *Adapter) Set(key string, value []byte) error {
	ctx, cancel := a.opContext()
	defer cancel()

	return a.client.Set(ctx, a.prefix+key, value, a.ttl).Err()
}

func (a *Adapter) Delete(key string) error {
	ctx, cancel := a.opContext()
	defer cancel()

	return a.client.Del(ctx, a.prefix+key).Err()
}

// Clear removes every key under the adapter's prefix, leaving other
// tenants of the same Redis database untouched.
func (a *Adapter) Clear() error {
	ctx, cancel := a.opContext()
	defer cancel()

	var cursor uint64
	for {
		keys, next, err := a.client.Scan(ctx, cursor, a.prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := a.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (a *Adapter) Close() error {
	return a.client.Close()
}

// opContext bounds each cache operation; the Cache port is
// deliberately context-free so callers never block on a slow cache.
func (a *Adapter) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), defaultTimeout)
}
