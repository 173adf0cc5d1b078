package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"snapcircle/internal/middleware"
	"snapcircle/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Aside reads key into dest, or calls fetch to fill dest on a miss and stores
// the result for ttl. Redis failures are logged and bypassed; only fetch errors
// are returned.
func Aside(ctx context.Context, family, key string, dest any, ttl time.Duration, fetch func() error) error {
	if client == nil {
		observability.CacheLookups.WithLabelValues(family, "bypass").Inc()
		return fetch()
	}

	raw, err := client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			observability.CacheLookups.WithLabelValues(family, "hit").Inc()
			return nil
		}
		// Corrupt entry; drop it and refill.
		Invalidate(ctx, key)
	case !errors.Is(err, redis.Nil):
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		observability.CacheLookups.WithLabelValues(family, "bypass").Inc()
		return fetch()
	}

	observability.CacheLookups.WithLabelValues(family, "miss").Inc()
	if err := fetch(); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}
