package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const snapshotRowID = "default"

// SQLBackend keeps the snapshot in a one-row table. The same code serves postgres and sqlite;
// only the placeholders and the schema differ.
type SQLBackend struct {
	db      *sql.DB
	dialect string
}

// NewPostgresBackend opens databaseURL with lib/pq and creates the table if needed.
func NewPostgresBackend(ctx context.Context, databaseURL string) (*SQLBackend, error) {
	b, err := openPostgres(databaseURL)
	if err != nil {
		return nil, err
	}
	if err := b.initSchema(ctx); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

// openPostgres prepares the pool without touching the server.
func openPostgres(databaseURL string) (*SQLBackend, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &SQLBackend{db: db, dialect: "postgres"}, nil
}

// NewSQLiteBackend opens (or creates) a sqlite database file.
func NewSQLiteBackend(ctx context.Context, path string) (*SQLBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return newSQLBackend(ctx, db, "sqlite")
}

func newSQLBackend(ctx context.Context, db *sql.DB, dialect string) (*SQLBackend, error) {
	b := &SQLBackend{db: db, dialect: dialect}
	if err := b.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLBackend) initSchema(ctx context.Context) error {
	q := `CREATE TABLE IF NOT EXISTS bot_state (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at BIGINT NOT NULL
    )`
	if _, err := b.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies connectivity. OpenBackend retries it for postgres before creating the schema.
func (b *SQLBackend) Ping(ctx context.Context) error { return b.db.PingContext(ctx) }

func (b *SQLBackend) Load(ctx context.Context) ([]byte, error) {
	q := `SELECT data FROM bot_state WHERE id = ` + b.placeholder(1)
	var data string
	err := b.db.QueryRowContext(ctx, q, snapshotRowID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	return []byte(data), nil
}

func (b *SQLBackend) Save(ctx context.Context, data []byte) error {
	q := `INSERT INTO bot_state (id, data, updated_at) VALUES (` +
		b.placeholder(1) + `, ` + b.placeholder(2) + `, ` + b.placeholder(3) + `)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
	if _, err := b.db.ExecContext(ctx, q, snapshotRowID, string(data), time.Now().Unix()); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (b *SQLBackend) placeholder(n int) string {
	if b.dialect == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (b *SQLBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
