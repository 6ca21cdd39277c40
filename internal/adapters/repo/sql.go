package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"crowd-monitor/internal/domain"
	"crowd-monitor/internal/infra/db"
	"crowd-monitor/internal/infra/metrics"
)

// SQL implements domain.SyncRepo over database/sql, against SQLite or
// Postgres depending on the dialect picked at connect time.
type SQL struct {
	db      *sql.DB
	dialect string
}

var _ domain.SyncRepo = (*SQL)(nil)

// NewSQL creates the repo adapter.
func NewSQL(database *sql.DB, dialect string) *SQL {
	return &SQL{db: database, dialect: dialect}
}

func (r *SQL) connCtx(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if _, ok := parent.Deadline(); ok {
		return parent, func() {}
	}
	return context.WithTimeout(parent, 5*time.Second)
}

// rebind rewrites ? placeholders to the $N form Postgres expects.
func (r *SQL) rebind(query string) string {
	if r.dialect != db.DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS locations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		name_he TEXT,
		place_id TEXT UNIQUE NOT NULL,
		address TEXT,
		operating_hours TEXT,
		is_active INTEGER DEFAULT 1,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		location_id INTEGER REFERENCES locations(id),
		popularity INTEGER,
		timestamp TEXT NOT NULL,
		day_of_week INTEGER,
		hour INTEGER,
		is_open INTEGER,
		synced_from TEXT,
		UNIQUE(location_id, timestamp)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_location_time ON readings(location_id, timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_day_hour ON readings(day_of_week, hour)`,
	`CREATE TABLE IF NOT EXISTS sync_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		blob_path TEXT UNIQUE NOT NULL,
		synced_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS locations (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		name_he TEXT,
		place_id TEXT UNIQUE NOT NULL,
		address TEXT,
		operating_hours TEXT,
		is_active INTEGER DEFAULT 1,
		created_at TIMESTAMPTZ DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS readings (
		id BIGSERIAL PRIMARY KEY,
		location_id BIGINT REFERENCES locations(id),
		popularity INTEGER,
		timestamp TEXT NOT NULL,
		day_of_week INTEGER,
		hour INTEGER,
		is_open INTEGER,
		synced_from TEXT,
		UNIQUE(location_id, timestamp)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_location_time ON readings(location_id, timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_day_hour ON readings(day_of_week, hour)`,
	`CREATE TABLE IF NOT EXISTS sync_log (
		id BIGSERIAL PRIMARY KEY,
		blob_path TEXT UNIQUE NOT NULL,
		synced_at TIMESTAMPTZ DEFAULT now()
	)`,
}

// InitSchema creates the tables and indexes if they do not exist.
func (r *SQL) InitSchema(ctx context.Context) error {
	ctx, cancel := r.connCtx(ctx)
	defer cancel()

	schema := sqliteSchema
	if r.dialect == db.DialectPostgres {
		schema = postgresSchema
	}
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// GetOrCreateLocation resolves a place id to its location row, creating
// the row on first sight.
func (r *SQL) GetOrCreateLocation(ctx context.Context, placeID string, info domain.LocationInfo) (int64, error) {
	ctx, cancel := r.connCtx(ctx)
	defer cancel()

	var id int64
	start := time.Now()
	err := r.db.QueryRowContext(ctx, r.rebind(`SELECT id FROM locations WHERE place_id = ?`), placeID).Scan(&id)
	metrics.ObserveNetworkRequest(r.dialect, "location_select", "locations", start, err)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("select location: %w", err)
	}

	name := info.Name
	if name == "" {
		name = "Unknown"
	}
	start = time.Now()
	err = r.db.QueryRowContext(ctx, r.rebind(`
INSERT INTO locations (name, name_he, place_id, address)
VALUES (?, ?, ?, ?)
RETURNING id`), name, nullString(info.NameHe), placeID, nullString(info.Address)).Scan(&id)
	metrics.ObserveNetworkRequest(r.dialect, "location_insert", "locations", start, err)
	if err != nil {
		return 0, fmt.Errorf("insert location: %w", err)
	}
	return id, nil
}

// InsertReading inserts one reading; a duplicate (location, timestamp) is
// reported as not-new rather than an error.
func (r *SQL) InsertReading(ctx context.Context, locationID int64, reading domain.Reading, sourcePath string) (bool, error) {
	ctx, cancel := r.connCtx(ctx)
	defer cancel()

	var popularity sql.NullInt64
	if reading.Popularity != nil {
		popularity = sql.NullInt64{Int64: int64(*reading.Popularity), Valid: true}
	}
	isOpen := 0
	if reading.IsOpen {
		isOpen = 1
	}

	start := time.Now()
	res, err := r.db.ExecContext(ctx, r.rebind(`
INSERT INTO readings (location_id, popularity, timestamp, day_of_week, hour, is_open, synced_from)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (location_id, timestamp) DO NOTHING`),
		locationID, popularity, reading.Timestamp.Format(time.RFC3339),
		reading.DayOfWeek, reading.Hour, isOpen, sourcePath)
	metrics.ObserveNetworkRequest(r.dialect, "reading_insert", "readings", start, err)
	if err != nil {
		return false, fmt.Errorf("insert reading: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert reading: rows affected: %w", err)
	}
	return affected > 0, nil
}

// IsSynced reports whether the archive path is already in the sync ledger.
func (r *SQL) IsSynced(ctx context.Context, path string) (bool, error) {
	ctx, cancel := r.connCtx(ctx)
	defer cancel()

	var one int
	err := r.db.QueryRowContext(ctx, r.rebind(`SELECT 1 FROM sync_log WHERE blob_path = ?`), path).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check sync ledger: %w", err)
	}
	return true, nil
}

// MarkSynced records the path in the ledger; marking twice is a no-op.
func (r *SQL) MarkSynced(ctx context.Context, path string) error {
	ctx, cancel := r.connCtx(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, r.rebind(`
INSERT INTO sync_log (blob_path) VALUES (?)
ON CONFLICT (blob_path) DO NOTHING`), path)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// ReadingsCount returns the number of imported readings.
func (r *SQL) ReadingsCount(ctx context.Context) (int, error) {
	ctx, cancel := r.connCtx(ctx)
	defer cancel()

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return count, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
