package sqlstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Migration is one idempotent schema step.
type Migration struct {
	Name string
	SQL  string
}

var migrations = []Migration{
	{
		Name: "create_resumes",
		SQL: `CREATE TABLE IF NOT EXISTS resumes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			raw_text TEXT NOT NULL DEFAULT '',
			structured TEXT,
			status TEXT NOT NULL,
			error TEXT,
			file_name TEXT NOT NULL DEFAULT '',
			file_path TEXT NOT NULL DEFAULT '',
			mime_type TEXT NOT NULL DEFAULT '',
			version TEXT NOT NULL,
			active_version TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	},
	{
		Name: "create_segment_embeddings",
		SQL: `CREATE TABLE IF NOT EXISTS segment_embeddings (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			resume_id TEXT NOT NULL,
			version TEXT NOT NULL,
			segment_type TEXT NOT NULL,
			segment_id TEXT NOT NULL,
			text TEXT NOT NULL,
			vector TEXT NOT NULL,
			metadata TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
	},
	{
		Name: "index_segment_embeddings_user_version",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_segment_embeddings_user_version ON segment_embeddings (user_id, version)`,
	},
	{
		Name: "create_feedback",
		SQL: `CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			field_id TEXT NOT NULL DEFAULT '',
			field_name TEXT NOT NULL DEFAULT '',
			original_suggestion TEXT NOT NULL DEFAULT '',
			user_correction TEXT NOT NULL DEFAULT '',
			confidence TEXT NOT NULL DEFAULT '',
			incorporated BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL
		)`,
	},
	{
		Name: "index_feedback_user",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_feedback_user ON feedback (user_id, url)`,
	},
	{
		Name: "create_applications",
		SQL: `CREATE TABLE IF NOT EXISTS applications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			url TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (user_id, url)
		)`,
	},
	{
		Name: "create_form_fields",
		SQL: `CREATE TABLE IF NOT EXISTS form_fields (
			application_id TEXT NOT NULL,
			field_id TEXT NOT NULL,
			field_name TEXT NOT NULL DEFAULT '',
			field_type TEXT NOT NULL DEFAULT '',
			label TEXT NOT NULL DEFAULT '',
			placeholder TEXT NOT NULL DEFAULT '',
			required BOOLEAN NOT NULL DEFAULT FALSE,
			value TEXT NOT NULL DEFAULT '',
			confidence TEXT NOT NULL DEFAULT '',
			correction TEXT,
			PRIMARY KEY (application_id, field_id)
		)`,
	},
	{
		Name: "create_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			has_resume BOOLEAN NOT NULL DEFAULT FALSE
		)`,
	},
}

// Migrate runs every migration in order. Each step is safe to repeat.
func (s *Store) Migrate(ctx context.Context) error {
	s.logger.Info("running database migrations", zap.String("driver", string(s.dialect)))

	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m.SQL); err != nil {
			s.logger.Error("migration failed", zap.String("name", m.Name), zap.Error(err))
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		s.logger.Debug("migration completed", zap.String("name", m.Name))
	}
	return nil
}
