// Package storage provides SQLite-based persistence for lookup results.
//
// The storage layer keeps encoded lookup results across restarts so that a
// long-running connector does not re-query the backend for entities it has
// already resolved. Volatile (search-limit) results never reach it.
//
// # Database Schema
//
// Tables:
//   - schema_version: applied migrations (semantic versions)
//   - lookup_results: encoded result per cache key with expiry and hit count
//
// # Basic Usage
//
//	rc, err := storage.OpenResultCache("~/.cache/eslookup/results.db", time.Hour)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rc.Close()
//
//	s := searcher.New(t, searcher.WithCache(rc))
//
// ResultCache satisfies cache.Cache. Expired rows are ignored on read and can
// be removed with Prune.
//
// # Drivers
//
// The default build uses modernc.org/sqlite (pure Go). Building with the
// sqlite_cgo tag switches to github.com/mattn/go-sqlite3.
//
// # Migrations
//
// Migrations are applied in order on open. Each records its version in
// schema_version; RollbackMigration reverts the newest one.
package storage
