package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/shrdlu/domain/cache"
	domainconfig "github.com/felixgeelhaar/shrdlu/domain/config"
	"github.com/felixgeelhaar/shrdlu/domain/history"
	"github.com/felixgeelhaar/shrdlu/infrastructure/resilience"
	"github.com/felixgeelhaar/shrdlu/infrastructure/storage/badger"
	"github.com/felixgeelhaar/shrdlu/infrastructure/storage/memory"
	"github.com/felixgeelhaar/shrdlu/infrastructure/storage/redis"
	"github.com/felixgeelhaar/shrdlu/infrastructure/storage/sqlite"
)

// Builder builds the planner's storage backends from configuration.
type Builder struct {
	config *domainconfig.PlannerConfig
}

// NewBuilder creates a new configuration builder.
func NewBuilder(config *domainconfig.PlannerConfig) *Builder {
	return &Builder{config: config}
}

// BuildResult contains the components built from configuration.
type BuildResult struct {
	// Cache is the plan cache, nil when disabled.
	Cache *cache.Plans
	// History is the plan history, nil when disabled.
	History history.Store

	closers []io.Closer
}

// Close releases every opened backend.
func (r *BuildResult) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Build opens the configured backends. On error, anything already opened
// is closed.
func (b *Builder) Build() (*BuildResult, error) {
	res := &BuildResult{}

	store, err := b.buildCache(res)
	if err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("%w: cache: %v", domainconfig.ErrBuildFailed, err)
	}
	if store != nil {
		res.Cache = cache.NewPlans(store, b.config.Cache.TTL.Duration())
	}

	res.History, err = b.buildHistory(res)
	if err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("%w: history: %v", domainconfig.ErrBuildFailed, err)
	}
	return res, nil
}

func (b *Builder) buildCache(res *BuildResult) (cache.Store, error) {
	cfg := b.config.Cache
	switch cfg.Backend {
	case "", domainconfig.BackendNone:
		return nil, nil
	case domainconfig.BackendMemory:
		return memory.NewCache(memory.WithMaxSize(cfg.MaxEntries)), nil
	case domainconfig.BackendBadger:
		opts := []badger.Option{badger.WithDir(cfg.Dir)}
		if cfg.KeyPrefix != "" {
			opts = append(opts, badger.WithKeyPrefix(cfg.KeyPrefix))
		}
		c, err := badger.NewCache(badger.DefaultConfig(), opts...)
		if err != nil {
			return nil, err
		}
		res.closers = append(res.closers, c)
		return c, nil
	case domainconfig.BackendRedis:
		opts := []redis.ConfigOption{
			redis.WithAddress(cfg.Address),
			redis.WithPassword(cfg.Password),
			redis.WithDB(cfg.DB),
		}
		if cfg.KeyPrefix != "" {
			opts = append(opts, redis.WithKeyPrefix(cfg.KeyPrefix))
		}
		c, err := redis.NewCache(redis.DefaultConfig(), opts...)
		if err != nil {
			return nil, err
		}
		res.closers = append(res.closers, c)
		return resilience.NewGuardedStore(c, resilience.DefaultBreakerConfig()), nil
	case domainconfig.BackendSQLite:
		opts := []sqlite.Option{sqlite.WithPath(cfg.Path)}
		if cfg.KeyPrefix != "" {
			opts = append(opts, sqlite.WithKeyPrefix(cfg.KeyPrefix))
		}
		c, err := sqlite.NewCache(sqlite.DefaultConfig(), opts...)
		if err != nil {
			return nil, err
		}
		res.closers = append(res.closers, c)
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func (b *Builder) buildHistory(res *BuildResult) (history.Store, error) {
	cfg := b.config.History
	switch cfg.Backend {
	case "", domainconfig.BackendNone:
		return nil, nil
	case domainconfig.BackendMemory:
		return memory.NewHistoryStore(), nil
	case domainconfig.BackendSQLite:
		s, err := sqlite.NewHistoryStore(sqlite.DefaultConfig(), sqlite.WithPath(cfg.Path))
		if err != nil {
			return nil, err
		}
		res.closers = append(res.closers, s)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
