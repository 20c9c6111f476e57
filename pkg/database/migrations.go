package database

import (
	"context"
	stdsql "database/sql"
	"fmt"
)

// CreateGINIndexes creates full-text search GIN indexes for PostgreSQL.
// These indexes enable efficient full-text search on task and result fields.
func CreateGINIndexes(ctx context.Context, db *stdsql.DB) error {
	// GIN index for task full-text search
	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_brain_sessions_task_gin
		ON brain_sessions USING gin(to_tsvector('english', task))`)
	if err != nil {
		return fmt.Errorf("failed to create task GIN index: %w", err)
	}

	// GIN index for result full-text search
	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_brain_sessions_result_gin
		ON brain_sessions USING gin(to_tsvector('english', COALESCE(result, '')))`)
	if err != nil {
		return fmt.Errorf("failed to create result GIN index: %w", err)
	}

	// GIN index for memory content full-text search
	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_memory_entries_content_gin
		ON memory_entries USING gin(to_tsvector('english', content))`)
	if err != nil {
		return fmt.Errorf("failed to create memory content GIN index: %w", err)
	}

	return nil
}
