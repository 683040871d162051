// Package store persists summaries of interpreted ballot cards in SQLite
// (modernc.org/sqlite, no cgo) or PostgreSQL (lib/pq).
package store
