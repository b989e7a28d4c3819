package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"roombook/internal/config"
	"roombook/internal/domain"

	"github.com/rs/zerolog"
)

// New builds the store selected by cfg.Backend. The returned close func
// releases the redis connection pool, if any.
func New(ctx context.Context, cfg config.CacheConfig, redisCfg config.RedisConfig, logger *zerolog.Logger) (domain.CacheStore, func() error, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	memory := NewMemoryStore(ttl, time.Duration(cfg.CleanupSeconds)*time.Second)
	noop := func() error { return nil }

	if cfg.Backend == config.CacheBackendMemory {
		return memory, noop, nil
	}

	client := NewRedisClient(redisCfg)
	policy := RetryPolicy{
		MaxRetries:   cfg.ConnectAttempts,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	}
	pingErr := policy.Do(ctx, func(ctx context.Context) error {
		return Ping(ctx, client)
	})
	closeFn := func() error { return Close(client) }
	store := NewRedisStore(client, ttl)

	switch cfg.Backend {
	case config.CacheBackendRedis:
		if pingErr != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis cache at %s: %w", redisCfg.Address, pingErr)
		}
		return store, closeFn, nil
	case config.CacheBackendFailover:
		if pingErr != nil && logger != nil {
			logger.Warn().Err(pingErr).Str("address", redisCfg.Address).Msg("Redis unavailable at startup, serving cache from memory")
		}
		return NewFailoverStore(store, memory, logger), closeFn, nil
	default:
		_ = client.Close()
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// GetOrLoad returns the cached value under key, or calls load and caches
// its result. Load errors are returned as is and nothing is cached for them.
// Store failures only cost a reload.
func GetOrLoad[T any](ctx context.Context, store domain.CacheStore, key string, ttl time.Duration, load func(context.Context) (*T, error)) (value *T, hit bool, err error) {
	if raw, found, getErr := store.Get(ctx, key); getErr == nil && found {
		var cached T
		if json.Unmarshal(raw, &cached) == nil {
			return &cached, true, nil
		}
	}

	value, err = load(ctx)
	if err != nil {
		return nil, false, err
	}

	if raw, marshalErr := json.Marshal(value); marshalErr == nil {
		_ = store.Set(ctx, key, raw, ttl)
	}
	return value, false, nil
}
