// Package redis provides a Redis-backed store backend. Each namespace is one
// Redis hash, so every operation is a single atomic command.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cristianoliveira/tmux-localnotify/internal/store"
)

var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrEmptyConnectionURL           = errors.New("empty redis connection URL")
)

// Config describes how to reach the Redis server.
type Config struct {
	ConnectionURL  string
	RetryAttempts  int
	RetryInterval  time.Duration
	ConnectTimeout time.Duration
}

// DefaultConfig returns the connection defaults for url.
func DefaultConfig(url string) Config {
	return Config{
		ConnectionURL:  url,
		RetryAttempts:  3,
		RetryInterval:  time.Second,
		ConnectTimeout: 10 * time.Second,
	}
}

// Connect parses the URL and pings the server, retrying up to
// cfg.RetryAttempts times.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	attempts := max(cfg.RetryAttempts, 1)
	var lastErr error
	for range attempts {
		client := redis.NewClient(opt)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}
	return nil, errors.Join(ErrRedisNotReady, lastErr)
}

// Backend implements store.Backend on Redis hashes.
type Backend struct {
	db     redis.UniversalClient
	prefix string
}

var _ store.Backend = (*Backend)(nil)

// New wraps a connected client. Hash names are "<prefix><namespace>".
func New(client redis.UniversalClient, prefix string) *Backend {
	return &Backend{db: client, prefix: prefix}
}

func (b *Backend) hash(namespace string) string {
	return b.prefix + namespace
}

func (b *Backend) Put(ctx context.Context, namespace, key string, value []byte) error {
	if err := b.db.HSet(ctx, b.hash(namespace), key, value).Err(); err != nil {
		return fmt.Errorf("redis store: put %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Get returns store.ErrNotFound when the field is missing (redis.Nil).
func (b *Backend) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	val, err := b.db.HGet(ctx, b.hash(namespace), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: get %s/%s: %w", namespace, key, err)
	}
	return val, nil
}

func (b *Backend) Delete(ctx context.Context, namespace, key string) error {
	if err := b.db.HDel(ctx, b.hash(namespace), key).Err(); err != nil {
		return fmt.Errorf("redis store: delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (b *Backend) Keys(ctx context.Context, namespace string) ([]string, error) {
	keys, err := b.db.HKeys(ctx, b.hash(namespace)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis store: list keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}
