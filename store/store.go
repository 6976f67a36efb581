package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a document has no stored chunks.
var ErrNotFound = errors.New("not found")

// ChunkRecord is one stored chunk of a document.
type ChunkRecord struct {
	DocumentID string    `json:"document_id"`
	Index      int       `json:"index"`
	Content    string    `json:"content"`
	Verbatim   bool      `json:"verbatim"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChunkStore persists the chunk set of a document.
type ChunkStore interface {
	// SaveChunks replaces the chunks of documentID. Records are stored in
	// slice order; their Index and DocumentID fields are overwritten.
	SaveChunks(ctx context.Context, documentID string, chunks []ChunkRecord) error

	// LoadChunks returns the chunks of documentID ordered by index, or
	// ErrNotFound when there are none.
	LoadChunks(ctx context.Context, documentID string) ([]ChunkRecord, error)

	// DeleteChunks removes the chunks of documentID.
	DeleteChunks(ctx context.Context, documentID string) error

	Close() error
}

// MessageType tells who wrote a chat message.
type MessageType string

const (
	MessageUser      MessageType = "user"
	MessageAssistant MessageType = "assistant"
)

// Message is one entry of a chat session.
type Message struct {
	ID        string      `json:"id"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
}

// SessionStore keeps append-only chat history per session.
type SessionStore interface {
	// Append adds messages to the end of the session.
	Append(ctx context.Context, sessionID string, msgs ...Message) error

	// History returns the session in append order. An unknown session has
	// an empty history.
	History(ctx context.Context, sessionID string) ([]Message, error)

	// Clear deletes the session.
	Clear(ctx context.Context, sessionID string) error

	Close() error
}
