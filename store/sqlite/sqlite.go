// Package sqlite stores document chunk sets in a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lakegraph/kgqa/store"
)

// ChunkStore implements store.ChunkStore using SQLite
type ChunkStore struct {
	db        *sql.DB
	tableName string
}

var _ store.ChunkStore = (*ChunkStore)(nil)

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "chunks"
}

// NewChunkStore opens the database and creates the table if needed.
func NewChunkStore(opts SqliteOptions) (*ChunkStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "chunks"
	}

	s := &ChunkStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *ChunkStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			document_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			verbatim INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (document_id, chunk_index)
		);
	`, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *ChunkStore) Close() error {
	return s.db.Close()
}

// SaveChunks replaces the document's chunks in one transaction.
func (s *ChunkStore) SaveChunks(ctx context.Context, documentID string, chunks []store.ChunkRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE document_id = ?", s.tableName), documentID); err != nil {
		return fmt.Errorf("failed to replace chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (document_id, chunk_index, content, verbatim, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.tableName))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, c := range chunks {
		created := c.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err := stmt.ExecContext(ctx, documentID, i, c.Content, c.Verbatim, created); err != nil {
			return fmt.Errorf("failed to save chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// LoadChunks returns the document's chunks ordered by index.
func (s *ChunkStore) LoadChunks(ctx context.Context, documentID string) ([]store.ChunkRecord, error) {
	query := fmt.Sprintf(`
		SELECT document_id, chunk_index, content, verbatim, created_at
		FROM %s
		WHERE document_id = ?
		ORDER BY chunk_index ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	defer rows.Close()

	var chunks []store.ChunkRecord
	for rows.Next() {
		var c store.ChunkRecord
		if err := rows.Scan(&c.DocumentID, &c.Index, &c.Content, &c.Verbatim, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunk rows: %w", err)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("chunks of %s: %w", documentID, store.ErrNotFound)
	}
	return chunks, nil
}

// DeleteChunks removes the document's chunks.
func (s *ChunkStore) DeleteChunks(ctx context.Context, documentID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE document_id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, documentID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

