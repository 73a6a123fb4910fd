package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/samber/lo"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteOptions configures the SQLite backend.
type SQLiteOptions struct {
	// Path is the database file, created when missing.
	Path string
	// Clock drives expiry. Defaults to the system clock.
	Clock clocker
}

// SQLite stores values in a single key/value table.
type SQLite struct {
	db    *sql.DB
	clock clocker
}

// NewSQLite opens the database at opts.Path and applies pending migrations.
func NewSQLite(ctx context.Context, opts SQLiteOptions) (*SQLite, error) {
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}

	db, err := sql.Open("sqlite", opts.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db, clock: opts.Clock}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

// Get returns the value stored under key when it has not expired.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value     []byte
		expiresAt sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv_entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UnixMilli()
	if expiresAt.Valid && now >= expiresAt.Int64 {
		if err := s.purgeExpired(ctx, key, now); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	return value, nil
}

// purgeExpired deletes key only while its row is still expired at now. A row
// rewritten by a concurrent Set no longer matches.
func (s *SQLite) purgeExpired(ctx context.Context, key string, now int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE key = ? AND expires_at IS NOT NULL AND expires_at <= ?`, key, now,
	)
	return err
}

// Set upserts value with an optional ttl.
func (s *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: s.clock.Now().Add(ttl).UnixMilli(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)

	return err
}

// Delete removes keys inside one transaction.
func (s *SQLite) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, key := range lo.Uniq(keys) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
