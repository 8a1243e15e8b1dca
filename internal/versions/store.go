package versions

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 2

// OriginalNumber is the version number of an item's untouched source.
const OriginalNumber = 0

var (
	ErrSchemaMismatch = errors.New("schema version mismatch")
	ErrNotFound       = errors.New("version not found")
	ErrOriginal       = errors.New("the original version cannot be removed")
)

// Version is one immutable output of an item.
type Version struct {
	ItemID    string    `json:"itemId"`
	Number    int       `json:"number"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// Label is "Original" for version 0 and "v<n>" otherwise.
func (v Version) Label() string {
	if v.Number == OriginalNumber {
		return "Original"
	}
	return fmt.Sprintf("v%d", v.Number)
}

// SQLiteStore persists versions in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens the database at path. ":memory:" keeps everything
// in memory.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path, now: time.Now}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// EnsureOriginal records url as version 0 of itemID unless the item already
// has one.
func (s *SQLiteStore) EnsureOriginal(ctx context.Context, itemID, url string) (Version, error) {
	v := Version{ItemID: itemID, Number: OriginalNumber, URL: url, CreatedAt: s.now().UTC()}
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO versions (item_id, number, url, created_at) VALUES (?, ?, ?, ?)",
		v.ItemID, v.Number, v.URL, v.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Version{}, fmt.Errorf("insert original version: %w", err)
	}
	return s.get(ctx, itemID, OriginalNumber)
}

// AddVersion appends url as the next version of itemID. Numbers are never
// reused, even after the latest version is removed.
func (s *SQLiteStore) AddVersion(ctx context.Context, itemID, url string) (Version, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Version{}, fmt.Errorf("begin version tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The counter is the high-water mark; the live maximum only matters for
	// items whose counter row is missing.
	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx, `
		SELECT MAX(n) FROM (
			SELECT last_number AS n FROM item_counters WHERE item_id = ?
			UNION ALL
			SELECT MAX(number) FROM versions WHERE item_id = ?
		)`, itemID, itemID,
	).Scan(&last); err != nil {
		return Version{}, fmt.Errorf("read last version: %w", err)
	}

	v := Version{ItemID: itemID, Number: 1, URL: url, CreatedAt: s.now().UTC()}
	if last.Valid {
		v.Number = int(last.Int64) + 1
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO item_counters (item_id, last_number) VALUES (?, ?)
		ON CONFLICT(item_id) DO UPDATE SET last_number = excluded.last_number`,
		itemID, v.Number,
	); err != nil {
		return Version{}, fmt.Errorf("update version counter: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO versions (item_id, number, url, created_at) VALUES (?, ?, ?, ?)",
		v.ItemID, v.Number, v.URL, v.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return Version{}, fmt.Errorf("insert version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Version{}, fmt.Errorf("commit version: %w", err)
	}
	return v, nil
}

// RemoveVersion deletes one version. Version 0 is immutable.
func (s *SQLiteStore) RemoveVersion(ctx context.Context, itemID string, number int) error {
	if number == OriginalNumber {
		return ErrOriginal
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM versions WHERE item_id = ? AND number = ?", itemID, number)
	if err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s v%d", ErrNotFound, itemID, number)
	}
	return nil
}

// ListVersions returns the versions of itemID in ascending order.
func (s *SQLiteStore) ListVersions(ctx context.Context, itemID string) ([]Version, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT item_id, number, url, created_at FROM versions WHERE item_id = ? ORDER BY number", itemID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) get(ctx context.Context, itemID string, number int) (Version, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT item_id, number, url, created_at FROM versions WHERE item_id = ? AND number = ?", itemID, number)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("%w: %s v%d", ErrNotFound, itemID, number)
	}
	return v, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(sc scanner) (Version, error) {
	var (
		v       Version
		created string
	)
	if err := sc.Scan(&v.ItemID, &v.Number, &v.URL, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Version{}, err
		}
		return Version{}, fmt.Errorf("scan version: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Version{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	v.CreatedAt = t
	return v, nil
}
