package state

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/park285/chr0n-bot/internal/obslog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend kinds accepted by OpenBackend.
const (
	KindFile     = "file"
	KindMemory   = "memory"
	KindRedis    = "redis"
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
)

// BackendConfig selects and configures a snapshot backend.
type BackendConfig struct {
	Kind        string
	FilePath    string
	RedisURL    string
	RedisKey    string
	DatabaseURL string
	SQLitePath  string

	// PingRetries bounds the startup connectivity retries for network backends.
	PingRetries uint64
}

func OpenBackend(ctx context.Context, cfg BackendConfig) (Backend, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	switch kind {
	case "", KindFile:
		return NewFileBackend(cfg.FilePath)
	case KindMemory:
		return NewMemoryBackend(), nil
	case KindRedis:
		opts, err := parseRedisURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := pingWithRetry(ctx, kind, cfg.PingRetries, func() error { return rdb.Ping(ctx).Err() }); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisBackend(rdb, cfg.RedisKey), nil
	case KindPostgres:
		b, err := openPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := pingWithRetry(ctx, kind, cfg.PingRetries, func() error { return b.Ping(ctx) }); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		if err := b.initSchema(ctx); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return b, nil
	case KindSQLite:
		return NewSQLiteBackend(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Kind)
	}
}

func pingWithRetry(ctx context.Context, kind string, retries uint64, op func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err != nil {
			obslog.L().Warn("state_backend_retry", zap.String("kind", kind), zap.Error(err))
		}
		return err
	}, b)
}

func parseRedisURL(raw string) (*redis.Options, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("REDIS_URL is required for the redis backend")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "6379"
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db %q", p)
		}
		db = n
	}
	pass, _ := u.User.Password()
	return &redis.Options{
		Addr:         host + ":" + port,
		Username:     u.User.Username(),
		Password:     pass,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}, nil
}
