// Package bootstrap wires the runtime dependencies shared by the server and tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"snapcircle/internal/cache"
	"snapcircle/internal/config"
	"snapcircle/internal/database"
	"snapcircle/internal/middleware"
	"snapcircle/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ScenarioPath names a seed scenario file (or "demo") applied at startup.
	ScenarioPath string
}

// InitRuntime connects to DB and Redis and optionally applies a seed scenario.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	cache.Configure(cfg.CacheTTLSeconds)
	r := cache.GetClient()

	if err := applyScenario(cfg, db, opts.ScenarioPath); err != nil {
		return nil, nil, err
	}

	return db, r, nil
}

// applyScenario loads and applies the scenario unless running in production.
// An already applied scenario is not an error.
func applyScenario(cfg *config.Config, db *gorm.DB, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if cfg.IsProduction() {
		middleware.Logger.Warn("ignoring seed scenario in production", "scenario", path)
		return nil
	}

	sc, err := seed.LoadScenarioFile(path)
	if err != nil {
		return fmt.Errorf("load seed scenario: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	err = sc.Apply(ctx, db, seed.Options{})
	if errors.Is(err, seed.ErrScenarioApplied) {
		middleware.Logger.Info("seed scenario already applied", "scenario", sc.Name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply seed scenario: %w", err)
	}
	return nil
}
