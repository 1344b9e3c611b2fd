// Package database persists audit results and discovery runs so repeated
// invocations can be compared over time.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/config"
	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/logger"
	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// Store is the persistence surface the CLI and batch runner depend on.
type Store interface {
	SaveAudit(ctx context.Context, result *types.AuditResult) error
	GetAudit(ctx context.Context, id string) (*types.AuditResult, error)
	ListAudits(ctx context.Context, domain string, limit int) ([]types.AuditResult, error)
	SaveDiscovery(ctx context.Context, opts types.DiscoveryOptions, domains []string) error
	Close() error
}

type sqlStore struct {
	db  *sqlx.DB
	cfg config.DatabaseConfig
	log *logger.Logger
}

// getPlaceholder returns the positional placeholder for the active driver.
func (s *sqlStore) getPlaceholder(n int) string {
	if s.cfg.Driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func NewStore(cfg config.DatabaseConfig, log *logger.Logger) (Store, error) {
	log = log.WithComponent("database")
	ctx := context.Background()

	start := time.Now()
	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		log.LogError(ctx, err, "database.Connect",
			"driver", cfg.Driver,
			"dsn_masked", maskDSN(cfg.DSN),
		)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := &sqlStore{db: db, cfg: cfg, log: log}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.LogDuration(ctx, "database.NewStore", start,
		"driver", cfg.Driver,
		"max_connections", cfg.MaxConnections,
	)
	return store, nil
}

// maskDSN hides credentials embedded in the DSN before it reaches a log line.
func maskDSN(dsn string) string {
	if len(dsn) > 10 {
		return dsn[:5] + "***" + dsn[len(dsn)-5:]
	}
	return "***"
}

func (s *sqlStore) SaveAudit(ctx context.Context, result *types.AuditResult) error {
	start := time.Now()
	ctx, span := s.log.StartSpan(ctx, "database.SaveAudit")
	defer span.End()

	payload, err := json.Marshal(result)
	if err != nil {
		s.log.LogError(ctx, err, "database.SaveAudit.marshal", "audit_id", result.ID)
		return fmt.Errorf("failed to marshal audit result: %w", err)
	}

	query := `
		INSERT INTO audits (
			id, domain, created_at, critical_issues, security_score,
			failed, result
		) VALUES (
			:id, :domain, :created_at, :critical_issues, :security_score,
			:failed, :result
		)
	`
	args := map[string]interface{}{
		"id":              result.ID,
		"domain":          result.Domain,
		"created_at":      result.Timestamp,
		"critical_issues": result.CriticalIssueCount,
		"security_score":  result.Security.Score,
		"failed":          result.Failed,
		"result":          string(payload),
	}

	if _, err := s.db.NamedExecContext(ctx, query, args); err != nil {
		s.log.LogError(ctx, err, "database.SaveAudit",
			"audit_id", result.ID,
			"domain", result.Domain,
		)
		return fmt.Errorf("failed to save audit: %w", err)
	}

	s.log.LogDuration(ctx, "database.SaveAudit", start,
		"audit_id", result.ID,
		"domain", result.Domain,
		"critical_issues", result.CriticalIssueCount,
	)
	return nil
}

func (s *sqlStore) GetAudit(ctx context.Context, id string) (*types.AuditResult, error) {
	query := fmt.Sprintf("SELECT result FROM audits WHERE id = %s", s.getPlaceholder(1))

	var payload string
	if err := s.db.GetContext(ctx, &payload, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("audit %s not found", id)
		}
		s.log.LogError(ctx, err, "database.GetAudit", "audit_id", id)
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}

	var result types.AuditResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit %s: %w", id, err)
	}
	return &result, nil
}

// ListAudits returns the most recent audits, newest first. An empty domain
// lists across all domains.
func (s *sqlStore) ListAudits(ctx context.Context, domain string, limit int) ([]types.AuditResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var (
		query string
		rows  []string
		err   error
	)
	if domain == "" {
		query = fmt.Sprintf(
			"SELECT result FROM audits ORDER BY created_at DESC LIMIT %s",
			s.getPlaceholder(1))
		err = s.db.SelectContext(ctx, &rows, query, limit)
	} else {
		query = fmt.Sprintf(
			"SELECT result FROM audits WHERE domain = %s ORDER BY created_at DESC LIMIT %s",
			s.getPlaceholder(1), s.getPlaceholder(2))
		err = s.db.SelectContext(ctx, &rows, query, types.NormalizeDomain(domain), limit)
	}
	if err != nil {
		s.log.LogError(ctx, err, "database.ListAudits", "domain", domain)
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}

	results := make([]types.AuditResult, 0, len(rows))
	for _, payload := range rows {
		var result types.AuditResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			s.log.Warnw("Skipping corrupt audit row", "error", err)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *sqlStore) SaveDiscovery(ctx context.Context, opts types.DiscoveryOptions, domains []string) error {
	start := time.Now()

	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to marshal discovery options: %w", err)
	}
	domainsJSON, err := json.Marshal(domains)
	if err != nil {
		return fmt.Errorf("failed to marshal discovery domains: %w", err)
	}

	query := `
		INSERT INTO discoveries (id, query, options, domains, domain_count, created_at)
		VALUES (:id, :query, :options, :domains, :domain_count, :created_at)
	`
	args := map[string]interface{}{
		"id":           uuid.New().String(),
		"query":        opts.Query,
		"options":      string(optsJSON),
		"domains":      string(domainsJSON),
		"domain_count": len(domains),
		"created_at":   time.Now().UTC(),
	}

	if _, err := s.db.NamedExecContext(ctx, query, args); err != nil {
		s.log.LogError(ctx, err, "database.SaveDiscovery", "query", opts.Query)
		return fmt.Errorf("failed to save discovery: %w", err)
	}

	s.log.LogDuration(ctx, "database.SaveDiscovery", start,
		"query", opts.Query,
		"domains", len(domains),
	)
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
