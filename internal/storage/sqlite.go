package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested entry doesn't exist or has expired
	ErrNotFound = errors.New("not found")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// GetResult returns the live entry for key and bumps its hit count
func (s *SQLiteStorage) GetResult(ctx context.Context, key string) (*CachedResult, error) {
	now := s.now().UnixNano()

	var r CachedResult
	var isMiss int
	var createdAt, expiresAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT cache_key, entity_value, result, is_miss, hit_count, created_at, expires_at
		FROM lookup_results
		WHERE cache_key = ? AND expires_at > ?
	`, key, now).Scan(&r.Key, &r.EntityValue, &r.Data, &isMiss, &r.HitCount, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "UPDATE lookup_results SET hit_count = hit_count + 1 WHERE cache_key = ?", key); err != nil {
		return nil, fmt.Errorf("failed to update hit count: %w", err)
	}

	r.IsMiss = isMiss != 0
	r.HitCount++
	r.CreatedAt = time.Unix(0, createdAt)
	r.ExpiresAt = time.Unix(0, expiresAt)
	return &r, nil
}

// PutResult inserts or replaces an entry, resetting its hit count
func (s *SQLiteStorage) PutResult(ctx context.Context, result *CachedResult) error {
	if result.CreatedAt.IsZero() {
		result.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lookup_results (cache_key, entity_value, result, is_miss, hit_count, created_at, expires_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			entity_value = excluded.entity_value,
			result = excluded.result,
			is_miss = excluded.is_miss,
			hit_count = 0,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, result.Key, result.EntityValue, result.Data, boolToInt(result.IsMiss),
		result.CreatedAt.UnixNano(), result.ExpiresAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to put result: %w", err)
	}
	return nil
}

// DeleteResult removes one entry
func (s *SQLiteStorage) DeleteResult(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM lookup_results WHERE cache_key = ?", key); err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	return nil
}

// DeleteExpired removes entries whose expiry is not after now
func (s *SQLiteStorage) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM lookup_results WHERE expires_at <= ?", now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired results: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted results: %w", err)
	}
	return n, nil
}

// GetStats summarises the stored results
func (s *SQLiteStorage) GetStats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{BuildMode: BuildMode}
	now := s.now().UnixNano()

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN is_miss = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(hit_count), 0)
		FROM lookup_results
	`, now).Scan(&stats.Entries, &stats.Misses, &stats.Expired, &stats.TotalHits)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	version, err := schemaVersion(ctx, s.db)
	if err != nil {
		return nil, err
	}
	stats.SchemaVersion = version.String()

	return stats, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
