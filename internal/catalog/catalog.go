// Package catalog records every backup archive written, in a small
// SQLite database kept under the preferences directory.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Entry is one recorded backup archive.
type Entry struct {
	ID        string
	Path      string
	Timers    int
	SizeBytes int64
	SHA256    string
	CreatedAt time.Time
}

// Catalog wraps the backup history database.
type Catalog struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at dbPath and runs
// migrations.
func Open(dbPath string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return c, nil
}

// OpenMemory creates an in-memory catalog for testing.
func OpenMemory() (*Catalog, error) {
	return Open(":memory:")
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) migrate() error {
	var version int
	err := c.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := c.migrateV1(); err != nil {
			return err
		}
	}

	_, err = c.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (c *Catalog) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS backups (
		id          TEXT PRIMARY KEY,
		path        TEXT NOT NULL,
		timers      INTEGER NOT NULL,
		size_bytes  INTEGER NOT NULL,
		sha256      TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_backups_created ON backups(created_at);
	`
	_, err := c.db.Exec(ddl)
	return err
}

// Record inserts a new backup entry and returns it.
func (c *Catalog) Record(path string, timers int, sizeBytes int64, digest string) (*Entry, error) {
	e := &Entry{
		ID:        uuid.NewString(),
		Path:      path,
		Timers:    timers,
		SizeBytes: sizeBytes,
		SHA256:    digest,
		CreatedAt: time.Now().UTC(),
	}
	_, err := c.db.Exec(
		`INSERT INTO backups (id, path, timers, size_bytes, sha256, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Path, e.Timers, e.SizeBytes, e.SHA256, e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("insert backup: %w", err)
	}
	return e, nil
}

// List returns recorded backups, newest first.
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.db.Query(
		`SELECT id, path, timers, size_bytes, sha256, created_at FROM backups ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Path, &e.Timers, &e.SizeBytes, &e.SHA256, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Forget removes an entry, for archives deleted outside the program.
func (c *Catalog) Forget(id string) error {
	_, err := c.db.Exec(`DELETE FROM backups WHERE id = ?`, id)
	return err
}
