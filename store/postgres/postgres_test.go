package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakegraph/kgqa/store"
)

func TestChunkStore_InitSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewChunkStoreWithPool(mock, "")
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS chunks")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkStore_SaveChunks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewChunkStoreWithPool(mock, "chunks")
	created := time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)
	chunks := []store.ChunkRecord{
		{Content: "彭蠡湖，在州东南五十二里。", CreatedAt: created},
		{Content: "未能拆分的原文", Verbatim: true, CreatedAt: created},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chunks WHERE document_id = $1")).
		WithArgs("doc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	for i, c := range chunks {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chunks")).
			WithArgs("doc-1", i, c.Content, c.Verbatim, created).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	require.NoError(t, s.SaveChunks(context.Background(), "doc-1", chunks))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkStore_SaveChunksRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewChunkStoreWithPool(mock, "chunks")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chunks")).
		WithArgs("doc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chunks")).
		WithArgs("doc-1", 0, "x", false, pgxmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = s.SaveChunks(context.Background(), "doc-1", []store.ChunkRecord{{Content: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkStore_LoadChunks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewChunkStoreWithPool(mock, "chunks")
	created := time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"document_id", "chunk_index", "content", "verbatim", "created_at"}).
		AddRow("doc-1", 0, "第一块", false, created).
		AddRow("doc-1", 1, "第二块", true, created)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT document_id, chunk_index, content, verbatim, created_at FROM chunks WHERE document_id = $1")).
		WithArgs("doc-1").
		WillReturnRows(rows)

	loaded, err := s.LoadChunks(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "第一块", loaded[0].Content)
	assert.Equal(t, 1, loaded[1].Index)
	assert.True(t, loaded[1].Verbatim)
	assert.Equal(t, created, loaded[1].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkStore_LoadChunksNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewChunkStoreWithPool(mock, "chunks")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT document_id")).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"document_id", "chunk_index", "content", "verbatim", "created_at"}))

	_, err = s.LoadChunks(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkStore_DeleteChunks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewChunkStoreWithPool(mock, "chunks")
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chunks WHERE document_id = $1")).
		WithArgs("doc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, s.DeleteChunks(context.Background(), "doc-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chunks")).
		WithArgs("doc-2").
		WillReturnError(errors.New("connection refused"))
	assert.Error(t, s.DeleteChunks(context.Background(), "doc-2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
