package database

import (
	"fmt"
)

// migrate creates the schema if it does not exist. The schema is additive
// only; both supported drivers accept the same DDL.
func (s *sqlStore) migrate() error {
	if s.cfg.Driver == "sqlite3" {
		if _, err := s.db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS audits (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		critical_issues INTEGER NOT NULL,
		security_score INTEGER NOT NULL,
		failed BOOLEAN NOT NULL DEFAULT FALSE,
		result TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS discoveries (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		options TEXT NOT NULL,
		domains TEXT NOT NULL,
		domain_count INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audits_domain ON audits(domain);
	CREATE INDEX IF NOT EXISTS idx_audits_created_at ON audits(created_at);
	CREATE INDEX IF NOT EXISTS idx_discoveries_query ON discoveries(query);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
