package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/wonny/stockscreen/backend/internal/marketdata"
	"github.com/wonny/stockscreen/backend/internal/quota"
	"github.com/wonny/stockscreen/backend/internal/strategyconfig"
	"github.com/wonny/stockscreen/backend/pkg/config"
	"github.com/wonny/stockscreen/backend/pkg/database"
	"github.com/wonny/stockscreen/backend/pkg/logger"
	"github.com/wonny/stockscreen/backend/pkg/redis"
)

// keyPrefix namespaces every Redis key the service writes
const keyPrefix = "stockscreen"

// quotaBackend is a store that also supports the period reset and provisioning
type quotaBackend interface {
	quota.Store
	quota.Resetter
	quota.Provisioner
}

// runtime holds the connections shared by the long-running commands
type runtime struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client
}

// openRuntime loads config and connects to Postgres and Redis when configured
func openRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	rt := &runtime{cfg: cfg, log: logger.New(cfg)}

	if cfg.Database.URL != "" {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		rt.db = db
		rt.log.Info("Connected to database")
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	rt.redis = rdb
	if rdb.Enabled() {
		rt.log.Info("Connected to redis")
	}

	return rt, nil
}

func (rt *runtime) close() {
	if rt.db != nil {
		rt.db.Close()
	}
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
}

// quotaStore opens the configured quota backend
func (rt *runtime) quotaStore(ctx context.Context) (quotaBackend, error) {
	switch rt.cfg.Quota.Backend {
	case config.QuotaBackendRedis:
		return quota.NewRedisStore(rt.redis, keyPrefix), nil
	default:
		if rt.db == nil {
			return nil, fmt.Errorf("quota backend %s requires DATABASE_URL", rt.cfg.Quota.Backend)
		}
		store := quota.NewPostgresStore(rt.db.Pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
}

// snapshotSource returns the rows file source when path is set, otherwise the
// Postgres snapshot repository behind the Redis cache
func (rt *runtime) snapshotSource(path string) (marketdata.Source, error) {
	if path != "" {
		return marketdata.NewFileSource(path), nil
	}
	if rt.db == nil {
		return nil, fmt.Errorf("no snapshot source: set DATABASE_URL or pass --rows")
	}
	repo := marketdata.NewRepository(rt.db.Pool)
	return marketdata.NewCachedSource(repo, redis.NewCache(rt.redis, keyPrefix), rt.log), nil
}

// strategyDefaults loads the execution defaults, printing any warnings
func (rt *runtime) strategyDefaults() (*strategyconfig.Config, error) {
	return loadDefaults(rt.cfg.StrategyDefaultsPath)
}

func loadDefaults(path string) (*strategyconfig.Config, error) {
	cfg, _, err := strategyconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load strategy defaults: %w", err)
	}
	for _, w := range strategyconfig.Warn(cfg) {
		fmt.Fprintf(os.Stderr, "⚠️  %s: %s\n", w.Code, w.Message)
	}
	return cfg, nil
}
