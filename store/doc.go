// Package store defines persistence for the two kinds of data the service
// keeps: the chunks a document was split into, and per-session chat history.
//
// Implementations live in subpackages:
//   - memory: in-process session history backed by go-cache
//   - redis: session history in Redis lists
//   - sqlite: chunk sets in a SQLite file
//   - postgres: chunk sets in PostgreSQL
package store
