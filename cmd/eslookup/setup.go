package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/dshills/eslookup-mcp/internal/cache"
	"github.com/dshills/eslookup-mcp/internal/config"
	"github.com/dshills/eslookup-mcp/internal/limiter"
	"github.com/dshills/eslookup-mcp/internal/logging"
	"github.com/dshills/eslookup-mcp/internal/searcher"
	"github.com/dshills/eslookup-mcp/internal/storage"
	"github.com/dshills/eslookup-mcp/internal/transport"
)

// runtime holds the wired lookup pipeline for one command invocation
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	searcher *searcher.Searcher
	options  searcher.Options
	cache    cache.Cache
}

// Close releases the cache and flushes the logger
func (r *runtime) Close() error {
	var err error
	if r.cache != nil {
		err = r.cache.Close()
	}
	_ = r.logger.Sync()
	return err
}

// loadConfig reads and validates the configuration named by --config
func loadConfig(c *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
	}
	return cfg, nil
}

// newRuntime builds logger, cache, limiter, transport and searcher from the
// configuration
func newRuntime(ctx context.Context, c *cli.Command) (*runtime, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(c.Bool("debug"))
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	resultCache, err := newCache(ctx, cfg.Cache, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("creating %s cache: %w", cfg.Cache.Backend, err)
	}

	httpTransport, err := transport.NewHTTP(cfg.HTTPConfig())
	if err != nil {
		if resultCache != nil {
			_ = resultCache.Close()
		}
		_ = logger.Sync()
		return nil, fmt.Errorf("creating transport: %w", err)
	}

	opts := []searcher.Option{
		searcher.WithLogger(logger),
		searcher.WithLimiter(limiter.New(cfg.LimiterConfig())),
	}
	if resultCache != nil {
		opts = append(opts, searcher.WithCache(resultCache))
	}

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		searcher: searcher.New(httpTransport, opts...),
		options:  cfg.ToOptions(),
		cache:    resultCache,
	}, nil
}

// newCache opens the configured result cache. The none backend yields nil.
func newCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (cache.Cache, error) {
	switch cfg.Backend {
	case cache.BackendNone:
		return nil, nil
	case "", cache.BackendMemory:
		logger.Debug("using memory result cache", zap.Int("size", cfg.Size), zap.Duration("ttl", cfg.TTL.Duration))
		return cache.NewMemory(cfg.Size, cfg.TTL.Duration), nil
	case cache.BackendSQLite:
		path, err := expandPath(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		logger.Debug("using sqlite result cache",
			zap.String("path", path),
			zap.String("driver", storage.DriverName),
			zap.String("build_mode", storage.BuildMode))
		return storage.OpenResultCache(path, cfg.TTL.Duration)
	case cache.BackendRedis:
		logger.Debug("using redis result cache")
		return cache.NewRedis(ctx, cfg.RedisURL, cfg.TTL.Duration)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// openSQLiteCache opens the sqlite result cache for maintenance commands
func openSQLiteCache(cfg config.CacheConfig) (*storage.ResultCache, error) {
	if cfg.Backend != cache.BackendSQLite {
		return nil, errors.New("cache maintenance requires the sqlite cache backend")
	}
	path, err := expandPath(cfg.Path)
	if err != nil {
		return nil, err
	}
	return storage.OpenResultCache(path, cfg.TTL.Duration)
}

// expandPath resolves a leading ~ to the user's home directory
func expandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
