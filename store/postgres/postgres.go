// Package postgres stores document chunk sets in PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lakegraph/kgqa/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// ChunkStore implements store.ChunkStore using PostgreSQL
type ChunkStore struct {
	pool      DBPool
	tableName string
}

var _ store.ChunkStore = (*ChunkStore)(nil)

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "chunks"
}

// NewChunkStore creates a new Postgres chunk store
func NewChunkStore(ctx context.Context, opts PostgresOptions) (*ChunkStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewChunkStoreWithPool(pool, opts.TableName), nil
}

// NewChunkStoreWithPool creates a chunk store on an existing pool.
// Useful for testing with mocks
func NewChunkStoreWithPool(pool DBPool, tableName string) *ChunkStore {
	if tableName == "" {
		tableName = "chunks"
	}
	return &ChunkStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *ChunkStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			document_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			verbatim BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (document_id, chunk_index)
		);
	`, s.tableName)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *ChunkStore) Close() error {
	s.pool.Close()
	return nil
}

// SaveChunks replaces the document's chunks in one transaction.
func (s *ChunkStore) SaveChunks(ctx context.Context, documentID string, chunks []store.ChunkRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := s.replace(ctx, tx, documentID, chunks); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

func (s *ChunkStore) replace(ctx context.Context, tx pgx.Tx, documentID string, chunks []store.ChunkRecord) error {
	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", s.tableName), documentID); err != nil {
		return fmt.Errorf("failed to replace chunks: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, chunk_index, content, verbatim, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, s.tableName)

	now := time.Now().UTC()
	for i, c := range chunks {
		created := c.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err := tx.Exec(ctx, query, documentID, i, c.Content, c.Verbatim, created); err != nil {
			return fmt.Errorf("failed to save chunk %d: %w", i, err)
		}
	}
	return nil
}

// LoadChunks returns the document's chunks ordered by index.
func (s *ChunkStore) LoadChunks(ctx context.Context, documentID string) ([]store.ChunkRecord, error) {
	query := fmt.Sprintf(`
		SELECT document_id, chunk_index, content, verbatim, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY chunk_index ASC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, documentID)
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
	query := fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", s.tableName)
	_, err := s.pool.Exec(ctx, query, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}
