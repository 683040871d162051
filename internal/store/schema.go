package store

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS interpretation (
    id TEXT PRIMARY KEY,
    ballot_style_id TEXT NOT NULL DEFAULT '',
    result TEXT NOT NULL CHECK (result IN ('ok', 'error')),
    front_error TEXT NOT NULL DEFAULT '',
    back_error TEXT NOT NULL DEFAULT '',
    ovals INTEGER NOT NULL,
    marked INTEGER NOT NULL,
    duration_ms BIGINT NOT NULL,
    card TEXT NOT NULL,
    created_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_interpretation_created_at ON interpretation(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_interpretation_ballot_style ON interpretation(ballot_style_id)`,
}

// createSchema creates every table. Safe to call multiple times.
func (s *Store) createSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
