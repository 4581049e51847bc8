package persistent

import (
	"context"
	"fmt"
)

// schemaStatements creates the tables the store relies on. Safe to run on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS generation_history (
		identity VARCHAR(255) PRIMARY KEY,
		entries JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		updated_at TIMESTAMPTZ DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS generation_jobs (
		job_id VARCHAR(36) PRIMARY KEY,          -- UUID
		identity VARCHAR(255) NOT NULL,
		status VARCHAR(50) NOT NULL,
		request JSONB,                            -- document text, design link, focus, attachments
		priority INT,
		error_message TEXT,
		entry_id BIGINT,
		enqueued_at TIMESTAMPTZ,
		started_at TIMESTAMPTZ,
		ended_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		updated_at TIMESTAMPTZ DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_generation_jobs_identity ON generation_jobs (identity);`,
	`CREATE INDEX IF NOT EXISTS idx_generation_jobs_status ON generation_jobs (status);`,
}

// EnsureSchema applies the table definitions.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	s.logger.Info("Database schema ensured")
	return nil
}
