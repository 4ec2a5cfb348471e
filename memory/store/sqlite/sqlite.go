// Package sqlite implements memory.RecordStore on SQLite via the pure
// Go modernc.org/sqlite driver. This is the system of record: rows here
// drive reconciliation, and a row may legitimately exist before its
// vector entry does.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/engram-ai/engram/memory"
)

// Store implements memory.RecordStore.
type Store struct {
	db *sql.DB
}

// New opens or creates a SQLite database at the given path.
// Pass ":memory:" for an ephemeral store.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_pragma=journal_mode(wal)"
	if dbPath == ":memory:" {
		dsn = dbPath
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id         TEXT PRIMARY KEY,
		ns         TEXT NOT NULL,
		content    TEXT NOT NULL,
		metadata   TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_ns ON records(ns);
	CREATE INDEX IF NOT EXISTS idx_records_created ON records(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert writes a new row. The id must be generated by the caller
// before any store write so both stores share it.
func (s *Store) Insert(ctx context.Context, rec *memory.Record) error {
	metaJSON, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, ns, content, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Namespace, rec.Content, metaJSON, rec.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Update replaces content and metadata for (namespace, id).
func (s *Store) Update(ctx context.Context, namespace, id, content string, metadata map[string]string) error {
	metaJSON, err := marshalMetadata(metadata)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET content = ?, metadata = ? WHERE ns = ? AND id = ?`,
		content, metaJSON, namespace, id)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return memory.ErrNotFound
	}
	return nil
}

// Delete removes the row for (namespace, id).
func (s *Store) Delete(ctx context.Context, namespace, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE ns = ? AND id = ?`, namespace, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return memory.ErrNotFound
	}
	return nil
}

// Get returns the row for (namespace, id).
func (s *Store) Get(ctx context.Context, namespace, id string) (*memory.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, ns, content, metadata, created_at FROM records WHERE ns = ? AND id = ?`,
		namespace, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, memory.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListByNamespace returns every row owned by the namespace, oldest
// first so reconciliation batches walk the store in insertion order.
func (s *Store) ListByNamespace(ctx context.Context, namespace string) ([]*memory.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ns, content, metadata, created_at FROM records WHERE ns = ? ORDER BY created_at, id`,
		namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*memory.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*memory.Record, error) {
	var rec memory.Record
	var metaJSON sql.NullString
	var createdAt string

	if err := row.Scan(&rec.ID, &rec.Namespace, &rec.Content, &metaJSON, &createdAt); err != nil {
		return nil, err
	}

	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &rec, nil
}

func marshalMetadata(metadata map[string]string) (*string, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	s := string(b)
	return &s, nil
}
