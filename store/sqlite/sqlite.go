/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements heatmap.Store (data points) and the calendar definition store
  using SQLite. Only source data and configuration are persisted; laid-out
  calendars are always recomputed.

INTERFACES IMPLEMENTED:
  heatmap.Store: Point persistence (append, load range, exists)

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the points table
  - No DELETE of individual points (Reset clears everything, dev only)

KEY TABLES:
  points:     Immutable timestamped values, keyed by series
  calendars:  Calendar definitions (JSON, versioned)

INDEXES:
  - idx_points_series_at: Calendar span queries (hot path)
  - idempotency_key UNIQUE: Rejects duplicate writes

TIME ENCODING:
  Point instants are stored as epoch milliseconds (INTEGER) so range scans
  compare numbers, independent of any timezone.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/heatmap.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - heatmap/store.go: Interface definitions
  - heatmap/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/warp/calheatmap/heatmap"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Points (append-only data source)
	CREATE TABLE IF NOT EXISTS points (
		id TEXT PRIMARY KEY,
		series TEXT NOT NULL,
		at_ms INTEGER NOT NULL,
		value TEXT NOT NULL,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	-- Composite index for calendar span queries (hot path)
	CREATE INDEX IF NOT EXISTS idx_points_series_at
		ON points(series, at_ms);

	-- Calendar definitions
	CREATE TABLE IF NOT EXISTS calendars (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		series TEXT NOT NULL,
		config_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// POINT STORE (heatmap.Store interface)
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Append adds a point to the series.
func (s *Store) Append(ctx context.Context, p heatmap.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendPoint(ctx, s.db, p)
}

func (s *Store) appendPoint(ctx context.Context, db execer, p heatmap.Point) error {
	if p.ID == "" {
		p.ID = heatmap.NewPointID()
	}

	query := `
		INSERT INTO points (id, series, at_ms, value, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		p.ID,
		p.Series,
		p.At.UnixMilli(),
		p.Value.String(),
		nullString(p.IdempotencyKey),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return heatmap.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append point: %w", err)
	}
	return nil
}

// AppendBatch adds multiple points atomically.
func (s *Store) AppendBatch(ctx context.Context, ps []heatmap.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, p := range ps {
		if err := s.appendPoint(ctx, sqlTx, p); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// LoadRange returns the series' points in [from, to), ordered by instant.
func (s *Store) LoadRange(ctx context.Context, series heatmap.SeriesID, from, to time.Time) ([]heatmap.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, series, at_ms, value, idempotency_key, created_at
		FROM points
		WHERE series = ? AND at_ms >= ? AND at_ms < ?
		ORDER BY at_ms ASC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, series, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	var points []heatmap.Point
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Exists checks if an idempotency key exists.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM points WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)

	return count > 0, err
}

// SeriesSummary describes one stored series.
type SeriesSummary struct {
	ID     heatmap.SeriesID
	Points int
	First  time.Time
	Last   time.Time
}

// ListSeries returns every series with its point count and extent.
func (s *Store) ListSeries(ctx context.Context) ([]SeriesSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT series, COUNT(*), MIN(at_ms), MAX(at_ms)
		FROM points
		GROUP BY series
		ORDER BY series
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	defer rows.Close()

	var out []SeriesSummary
	for rows.Next() {
		var (
			sum         SeriesSummary
			first, last int64
		)
		if err := rows.Scan(&sum.ID, &sum.Points, &first, &last); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		sum.First = time.UnixMilli(first).UTC()
		sum.Last = time.UnixMilli(last).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

func scanPoint(rows *sql.Rows) (heatmap.Point, error) {
	var (
		p              heatmap.Point
		atMs           int64
		value          string
		idempotencyKey sql.NullString
		createdAt      string
	)

	if err := rows.Scan(&p.ID, &p.Series, &atMs, &value, &idempotencyKey, &createdAt); err != nil {
		return p, fmt.Errorf("failed to scan point: %w", err)
	}

	p.At = time.UnixMilli(atMs).UTC()
	p.Value = heatmap.MustParseDecimal(value)
	p.IdempotencyKey = idempotencyKey.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return p, nil
}

// =============================================================================
// CALENDAR STORE
// =============================================================================

// CalendarRecord is a stored calendar definition with its JSON config.
type CalendarRecord struct {
	ID         string
	Name       string
	Series     string
	ConfigJSON string
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaveCalendar inserts a calendar or bumps the version of an existing one.
func (s *Store) SaveCalendar(ctx context.Context, c CalendarRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO calendars (id, name, series, config_json, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			series = excluded.series,
			config_json = excluded.config_json,
			version = calendars.version + 1,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query, c.ID, c.Name, c.Series, c.ConfigJSON, now, now)
	if err != nil {
		return fmt.Errorf("failed to save calendar: %w", err)
	}
	return nil
}

// GetCalendar returns a calendar, or heatmap.ErrCalendarNotFound.
func (s *Store) GetCalendar(ctx context.Context, id string) (*CalendarRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, series, config_json, version, created_at, updated_at
		FROM calendars WHERE id = ?
	`, id)

	c, err := scanCalendar(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, heatmap.ErrCalendarNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCalendars returns all calendars ordered by ID.
func (s *Store) ListCalendars(ctx context.Context) ([]CalendarRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, series, config_json, version, created_at, updated_at
		FROM calendars ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	defer rows.Close()

	var out []CalendarRecord
	for rows.Next() {
		c, err := scanCalendar(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// DeleteCalendar removes a calendar definition. Points are untouched.
func (s *Store) DeleteCalendar(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM calendars WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete calendar: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return heatmap.ErrCalendarNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCalendar(row scanner) (*CalendarRecord, error) {
	var (
		c                    CalendarRecord
		createdAt, updatedAt string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Series, &c.ConfigJSON, &c.Version, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan calendar: %w", err)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &c, nil
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears all data (dev/demo only).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM points; DELETE FROM calendars;")
	return err
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
