package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteSlot keeps the record as one row of a credentials table.
type SQLiteSlot struct {
	db *sql.DB
}

// NewSQLiteSlot opens (or creates) the database at dbPath and ensures the schema exists.
func NewSQLiteSlot(dbPath string) (*SQLiteSlot, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("credstore: open DB: %w", err)
	}

	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("credstore: set WAL: %w", err)
	}
	// Two client processes may share one database file.
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("credstore: set busy_timeout: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS credentials (
		key        TEXT PRIMARY KEY,
		record     BLOB NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("credstore: migrate: %w", err)
	}
	return &SQLiteSlot{db: db}, nil
}

func (s *SQLiteSlot) Read() ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(context.Background(),
		`SELECT record FROM credentials WHERE key = ?`, Key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credstore: select record: %w", err)
	}
	return data, nil
}

func (s *SQLiteSlot) Write(data []byte) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO credentials (key, record, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		Key, data)
	if err != nil {
		return fmt.Errorf("credstore: upsert record: %w", err)
	}
	return nil
}

func (s *SQLiteSlot) Erase() error {
	if _, err := s.db.ExecContext(context.Background(), `DELETE FROM credentials WHERE key = ?`, Key); err != nil {
		return fmt.Errorf("credstore: delete record: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}
