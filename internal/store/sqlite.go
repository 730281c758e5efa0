package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"strategy-pricer/internal/errors"
	"strategy-pricer/internal/models"
)

// SQLiteQuoteCache implements QuoteStore using SQLite.
type SQLiteQuoteCache struct {
	db    *sql.DB
	retry retryPolicy
}

// NewSQLiteQuoteCache opens (or creates) the cache database at dbPath.
func NewSQLiteQuoteCache(dbPath string) (*SQLiteQuoteCache, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.NewStoreError("open", "", fmt.Errorf("%w: %v", errors.ErrCacheUnavailable, err))
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	cache := &SQLiteQuoteCache{db: db, retry: defaultRetry}
	if err := cache.initSchema(); err != nil {
		db.Close()
		return nil, errors.NewStoreError("init", "", fmt.Errorf("%w: %v", errors.ErrCacheUnavailable, err))
	}

	return cache, nil
}

// initSchema creates the quotes table.
func (s *SQLiteQuoteCache) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS quotes (
		key TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		model TEXT NOT NULL,
		request TEXT NOT NULL,
		result TEXT NOT NULL,
		hits INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_quotes_kind ON quotes(kind);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteQuoteCache) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the quote stored under key and bumps its hit count. A miss
// returns ErrDataNotFound.
func (s *SQLiteQuoteCache) Get(ctx context.Context, key string) (*Quote, error) {
	var q Quote
	var result string
	err := s.db.QueryRowContext(ctx,
		`SELECT key, kind, model, result, hits, created_at FROM quotes WHERE key = ?`, key,
	).Scan(&q.Key, &q.Kind, &q.Model, &result, &q.Hits, &q.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewStoreError("get", key, errors.ErrDataNotFound)
	}
	if err != nil {
		return nil, errors.NewStoreError("get", key, err)
	}
	if err := json.Unmarshal([]byte(result), &q.Result); err != nil {
		return nil, errors.NewStoreError("get", key, fmt.Errorf("decoding result: %w", err))
	}

	err = s.retry.do(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `UPDATE quotes SET hits = hits + 1 WHERE key = ?`, key)
		return err
	})
	if err != nil {
		return nil, errors.NewStoreError("get", key, err)
	}
	q.Hits++
	return &q, nil
}

// Put stores a result, replacing any previous quote under key.
func (s *SQLiteQuoteCache) Put(ctx context.Context, key string, req models.PricingRequest, result models.PricingResult) error {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return errors.NewStoreError("put", key, err)
	}
	resJSON, err := json.Marshal(result)
	if err != nil {
		return errors.NewStoreError("put", key, err)
	}

	err = s.retry.do(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO quotes (key, kind, model, request, result, hits, created_at)
			VALUES (?, ?, ?, ?, ?, 0, ?)
		`, key, string(req.Leg.Kind), string(req.Model), string(reqJSON), string(resJSON), time.Now().UTC())
		return err
	})
	if err != nil {
		return errors.NewStoreError("put", key, err)
	}
	return nil
}

// Stats summarises the cache.
func (s *SQLiteQuoteCache) Stats(ctx context.Context) (CacheStats, error) {
	stats := CacheStats{ByKind: make(map[string]int)}

	var oldest, newest sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(hits), 0), MIN(created_at), MAX(created_at) FROM quotes`,
	).Scan(&stats.Entries, &stats.TotalHits, &oldest, &newest)
	if err != nil {
		return stats, errors.NewStoreError("stats", "", err)
	}
	stats.Oldest = parseTimestamp(oldest)
	stats.Newest = parseTimestamp(newest)

	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM quotes GROUP BY kind`)
	if err != nil {
		return stats, errors.NewStoreError("stats", "", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return stats, errors.NewStoreError("stats", "", err)
		}
		stats.ByKind[kind] = n
	}
	if err := rows.Err(); err != nil {
		return stats, errors.NewStoreError("stats", "", err)
	}
	return stats, nil
}

// Clear deletes every quote and returns how many were removed.
func (s *SQLiteQuoteCache) Clear(ctx context.Context) (int64, error) {
	var n int64
	err := s.retry.do(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM quotes`)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, errors.NewStoreError("clear", "", err)
	}
	return n, nil
}

// parseTimestamp reads an aggregate timestamp, which the driver returns as text.
func parseTimestamp(ns sql.NullString) time.Time {
	if !ns.Valid {
		return time.Time{}
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		time.RFC3339Nano,
	} {
		if t, err := time.Parse(layout, ns.String); err == nil {
			return t
		}
	}
	return time.Time{}
}
