// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/sigil-dev/sketch/internal/store"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

// Compile-time interface check.
var _ store.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements store.DocumentStore backed by SQLite.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore opens (or creates) a SQLite database at dbPath and
// initialises the documents table.
func NewDocumentStore(dbPath string) (*DocumentStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite db: %w", err)
	}

	return &DocumentStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	data       BLOB NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *DocumentStore) Close() error {
	return s.db.Close()
}

func (s *DocumentStore) Create(ctx context.Context, doc *store.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	const q = `INSERT INTO documents (id, name, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`

	updated := doc.UpdatedAt
	if updated.IsZero() {
		updated = doc.CreatedAt
	}
	_, err := s.db.ExecContext(ctx, q,
		doc.ID,
		doc.Name,
		doc.Data,
		formatTime(doc.CreatedAt),
		formatTime(updated),
	)
	if isUniqueViolation(err) {
		return store.Conflict(doc.ID)
	}
	if err != nil {
		return dbFailure(err, doc.ID, "creating document %s", doc.ID)
	}
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*store.Document, error) {
	const q = `SELECT id, name, data, created_at, updated_at FROM documents WHERE id = ?`

	var doc store.Document
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&doc.ID,
		&doc.Name,
		&doc.Data,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound(id)
	}
	if err != nil {
		return nil, dbFailure(err, id, "getting document %s", id)
	}

	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)
	return &doc, nil
}

// Update replaces the name and data of a document. UpdatedAt is stored as
// given, or as the current time when zero.
func (s *DocumentStore) Update(ctx context.Context, doc *store.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	const q = `UPDATE documents SET name = ?, data = ?, updated_at = ? WHERE id = ?`

	updated := doc.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	result, err := s.db.ExecContext(ctx, q,
		doc.Name,
		doc.Data,
		formatTime(updated),
		doc.ID,
	)
	if err != nil {
		return dbFailure(err, doc.ID, "updating document %s", doc.ID)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return dbFailure(err, doc.ID, "checking rows affected for document %s", doc.ID)
	}
	if rows == 0 {
		return store.NotFound(doc.ID)
	}
	return nil
}

// List returns documents newest first.
func (s *DocumentStore) List(ctx context.Context, opts store.ListOpts) ([]*store.Document, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	const q = `SELECT id, name, data, created_at, updated_at
FROM documents ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, q, limit, opts.Offset)
	if err != nil {
		return nil, dbFailure(err, "", "listing documents")
	}
	defer rows.Close()

	var docs []*store.Document
	for rows.Next() {
		var doc store.Document
		var createdAt, updatedAt string
		if err := rows.Scan(
			&doc.ID,
			&doc.Name,
			&doc.Data,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, dbFailure(err, "", "scanning document row")
		}
		doc.CreatedAt = parseTime(createdAt)
		doc.UpdatedAt = parseTime(updatedAt)
		docs = append(docs, &doc)
	}

	if err := rows.Err(); err != nil {
		return nil, dbFailure(err, "", "iterating document rows")
	}
	return docs, nil
}

func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return dbFailure(err, id, "deleting document %s", id)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return dbFailure(err, id, "checking rows affected for document %s", id)
	}
	if rows == 0 {
		return store.NotFound(id)
	}
	return nil
}

func dbFailure(err error, id, format string, args ...any) error {
	coded := sketcherr.Wrapf(err, sketcherr.CodeStoreDatabaseFailure, format, args...)
	if id != "" {
		coded = sketcherr.With(coded, sketcherr.FieldDocumentID(id))
	}
	return coded
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime serialises a time.Time in UTC with nanosecond precision.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// parseTime deserialises a time string stored in the database.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
