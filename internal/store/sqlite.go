package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/i474232898/f1-sensors/internal/f1"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    resource TEXT PRIMARY KEY,
    body BLOB NOT NULL,
    checksum TEXT NOT NULL,
    fetched_at TEXT NOT NULL
);
`

// SQLitePersister keeps the latest document per resource in a single row.
type SQLitePersister struct {
	db *sql.DB
}

// NewSQLitePersister opens dbPath and creates the schema.
// Use ":memory:" for in-memory databases (useful for testing).
func NewSQLitePersister(dbPath string) (*SQLitePersister, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only allows one writer at a time
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLitePersister{db: db}, nil
}

// Close closes the database connection.
func (p *SQLitePersister) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *SQLitePersister) Persist(snap *f1.Snapshot) error {
	_, err := p.db.Exec(`
		INSERT INTO snapshots (resource, body, checksum, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(resource) DO UPDATE SET
			body = excluded.body,
			checksum = excluded.checksum,
			fetched_at = excluded.fetched_at`,
		string(snap.Resource), snap.Body(), snap.Checksum, snap.FetchedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to upsert %s snapshot: %w", snap.Resource, err)
	}
	return nil
}

func (p *SQLitePersister) Load(resource f1.Resource) (*f1.Snapshot, error) {
	var (
		body      []byte
		fetchedAt string
	)
	err := p.db.QueryRow(
		`SELECT body, fetched_at FROM snapshots WHERE resource = ?`, string(resource),
	).Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s snapshot: %w", resource, err)
	}

	ts, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		ts = time.Now()
	}
	return f1.Decode(resource, body, ts)
}
