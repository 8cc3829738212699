// Package factory builds a store backend from a DSN.
package factory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cristianoliveira/tmux-localnotify/internal/store"
	pg "github.com/cristianoliveira/tmux-localnotify/internal/store/postgres"
	rd "github.com/cristianoliveira/tmux-localnotify/internal/store/redis"
	sq "github.com/cristianoliveira/tmux-localnotify/internal/store/sqlite"
)

// Option tunes backend construction.
type Option func(*settings)

type settings struct {
	redisRetryAttempts int
	redisRetryInterval time.Duration
	redisPrefix        string
}

// WithRedisRetry sets how often and how fast a Redis connection is retried.
func WithRedisRetry(attempts int, interval time.Duration) Option {
	return func(s *settings) {
		s.redisRetryAttempts = attempts
		s.redisRetryInterval = interval
	}
}

// WithRedisPrefix sets the prefix of Redis hash names.
func WithRedisPrefix(prefix string) Option {
	return func(s *settings) { s.redisPrefix = prefix }
}

// NewFromDSN selects a backend implementation based on DSN.
// Supported:
//   - postgres: DSN starting with "postgres://" or "postgresql://"
//   - redis: DSN starting with "redis://" or "rediss://"
//   - sqlite: "sqlite://<path>" or bare filepath (treated as sqlite)
func NewFromDSN(ctx context.Context, dsn string, opts ...Option) (store.Backend, error) {
	d := strings.TrimSpace(dsn)
	ld := strings.ToLower(d)
	if ld == "" {
		return nil, errors.New("empty DSN")
	}
	s := settings{redisRetryAttempts: 3, redisRetryInterval: time.Second}
	for _, o := range opts {
		o(&s)
	}

	switch {
	case strings.HasPrefix(ld, "postgres://") || strings.HasPrefix(ld, "postgresql://"):
		return pg.New(d)
	case strings.HasPrefix(ld, "redis://") || strings.HasPrefix(ld, "rediss://"):
		cfg := rd.DefaultConfig(d)
		cfg.RetryAttempts = s.redisRetryAttempts
		cfg.RetryInterval = s.redisRetryInterval
		client, err := rd.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return rd.New(client, s.redisPrefix), nil
	case strings.HasPrefix(ld, "sqlite://"):
		return sq.New(d[len("sqlite://"):])
	default:
		return sq.New(d)
	}
}
