// Package sqlite provides a SQLite-backed implementation of the docstore.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/wishlist/internal/docstore"
)

// Ensure SQLiteStore implements docstore.Store
var _ docstore.Store = (*SQLiteStore)(nil)

// SQLiteStore implements docstore.Store using SQLite. Documents are stored as
// JSON text; change notifications are in-process only.
type SQLiteStore struct {
	db   *sql.DB
	feed *docstore.Broadcaster
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers and keeps read-your-writes
	// ordering for the change feed.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, feed: docstore.NewBroadcaster()}, nil
}

// Close closes the database connection and all listeners.
func (s *SQLiteStore) Close() error {
	s.feed.Close()
	return s.db.Close()
}

// Get retrieves a document by collection and ID.
func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (docstore.Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Snapshot{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Snapshot{}, fmt.Errorf("failed to get document: %w", err)
	}

	doc, err := docstore.Unmarshal([]byte(data))
	if err != nil {
		return docstore.Snapshot{}, err
	}
	return docstore.Snapshot{ID: id, Data: doc}, nil
}

// Find returns documents matching the query in creation order.
func (s *SQLiteStore) Find(ctx context.Context, q docstore.Query) ([]docstore.Snapshot, error) {
	if err := docstore.ValidateQuery(q); err != nil {
		return nil, err
	}

	query := "SELECT id, data FROM documents WHERE collection = ?"
	args := []any{q.Collection}
	if q.Field != "" {
		// Field is validated as a plain identifier above.
		query += " AND json_extract(data, '$." + q.Field + "') = ?"
		args = append(args, q.Value)
	}
	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	snaps := []docstore.Snapshot{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc, err := docstore.Unmarshal([]byte(data))
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, docstore.Snapshot{ID: id, Data: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return snaps, nil
}

// Add persists a new document under a generated ULID.
func (s *SQLiteStore) Add(ctx context.Context, collection string, doc docstore.Document) (string, error) {
	data, err := docstore.Marshal(doc)
	if err != nil {
		return "", err
	}

	id := ulid.Make().String()
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		collection, id, string(data), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}

	s.feed.Publish(docstore.Change{Collection: collection, ID: id})
	return id, nil
}

// Set creates or replaces a document, keeping its original creation order.
func (s *SQLiteStore) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	data, err := docstore.Marshal(doc)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, collection, id, string(data), now, now)
	if err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}

	s.feed.Publish(docstore.Change{Collection: collection, ID: id})
	return nil
}

// Update merges fields into an existing document.
func (s *SQLiteStore) Update(ctx context.Context, collection, id string, fields docstore.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	current, err := docstore.Unmarshal([]byte(data))
	if err != nil {
		return err
	}
	merged, err := docstore.Marshal(docstore.Merge(current, fields))
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?",
		string(merged), time.Now().Unix(), collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.feed.Publish(docstore.Change{Collection: collection, ID: id})
	return nil
}

// Delete removes a document. Deleting a missing document is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n > 0 {
		s.feed.Publish(docstore.Change{Collection: collection, ID: id})
	}
	return nil
}

// Listen subscribes to change signals for a collection.
func (s *SQLiteStore) Listen(ctx context.Context, collection string) (<-chan docstore.Change, error) {
	return s.feed.Listen(ctx, collection)
}
