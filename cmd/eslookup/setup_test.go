package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dshills/eslookup-mcp/internal/cache"
	"github.com/dshills/eslookup-mcp/internal/config"
	"github.com/dshills/eslookup-mcp/internal/storage"
	"github.com/dshills/eslookup-mcp/pkg/types"
)

func TestNewCache(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	ttl := config.Duration{Duration: time.Minute}

	t.Run("none", func(t *testing.T) {
		c, err := newCache(ctx, config.CacheConfig{Backend: cache.BackendNone}, logger)
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("memory", func(t *testing.T) {
		c, err := newCache(ctx, config.CacheConfig{Backend: cache.BackendMemory, Size: 5, TTL: ttl}, logger)
		require.NoError(t, err)
		assert.IsType(t, &cache.Memory{}, c)
		require.NoError(t, c.Close())
	})

	t.Run("sqlite creates the directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "results.db")
		c, err := newCache(ctx, config.CacheConfig{Backend: cache.BackendSQLite, Path: path, TTL: ttl}, logger)
		require.NoError(t, err)
		defer c.Close()

		assert.IsType(t, &storage.ResultCache{}, c)
		require.NoError(t, c.Set(ctx, "k", types.LookupResult{Entity: types.NewEntity("x")}))

		_, err = os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		c, err := newCache(ctx, config.CacheConfig{
			Backend:  cache.BackendRedis,
			RedisURL: "redis://" + mr.Addr(),
			TTL:      ttl,
		}, logger)
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &cache.Redis{}, c)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := newCache(ctx, config.CacheConfig{Backend: "memcached"}, logger)
		assert.Error(t, err)
	})
}

func TestOpenSQLiteCacheRequiresBackend(t *testing.T) {
	_, err := openSQLiteCache(config.CacheConfig{Backend: cache.BackendMemory})
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/cache/results.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cache", "results.db"), got)

	got, err = expandPath("/var/lib/eslookup.db")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/eslookup.db", got)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}
