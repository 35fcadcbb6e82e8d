// Package store provides the persistence layer for the replay engine: a
// SQLite-backed series cache with a freshness window, an in-memory cooldown
// store, and a Parquet archive of real fetched bars.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dripsim/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const createCacheTable = `
CREATE TABLE IF NOT EXISTS series_cache (
	key        TEXT PRIMARY KEY,
	symbol     TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date   TEXT NOT NULL,
	source     TEXT NOT NULL,
	fetched_at INTEGER NOT NULL,
	series     BLOB NOT NULL
)`

// CacheStore persists fetched price series keyed by (symbol, start, end).
// Entries are written once on a successful fetch, never mutated, and served
// only while younger than the freshness window.
type CacheStore struct {
	db       *sql.DB
	freshFor time.Duration
	now      func() time.Time
}

// NewCacheStore opens (or creates) the cache database at dbPath. Entries
// older than freshFor are treated as expired on read.
func NewCacheStore(dbPath string, freshFor time.Duration) (*CacheStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating series_cache table: %w", err)
	}
	return &CacheStore{db: db, freshFor: freshFor, now: time.Now}, nil
}

// SetClock pins the store's clock. Tests only.
func (s *CacheStore) SetClock(now func() time.Time) { s.now = now }

// CacheKey builds the canonical cache key for a standardized request.
func CacheKey(symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s_%s_%s", symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// Get returns the cached series for key if present and fresh. The second
// return value reports a usable hit; expired entries are misses.
func (s *CacheStore) Get(ctx context.Context, key string) (*domain.PriceSeries, bool, error) {
	var fetchedAt int64
	var blob []byte
	row := s.db.QueryRowContext(ctx,
		`SELECT fetched_at, series FROM series_cache WHERE key = ?`, key)
	if err := row.Scan(&fetchedAt, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}

	if s.now().Sub(time.Unix(fetchedAt, 0)) >= s.freshFor {
		return nil, false, nil
	}

	var series domain.PriceSeries
	if err := json.Unmarshal(blob, &series); err != nil {
		return nil, false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	series.Source = domain.SourceCache
	return &series, true, nil
}

// Put stores a fetched series under key, stamping the fetch time.
func (s *CacheStore) Put(ctx context.Context, key string, series *domain.PriceSeries) error {
	blob, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("encoding series for %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO series_cache (key, symbol, start_date, end_date, source, fetched_at, series)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key, series.Symbol,
		series.Start.Format("2006-01-02"), series.End.Format("2006-01-02"),
		string(series.Source), s.now().Unix(), blob)
	if err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	return nil
}

// Clear discards all cache entries.
func (s *CacheStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM series_cache`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Info returns the number of cached entries.
func (s *CacheStore) Info(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM series_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *CacheStore) Close() error {
	return s.db.Close()
}
