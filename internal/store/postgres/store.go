// Package postgres provides a Postgres-backed journal store for deployments
// that feed a shared database instead of a local file.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/litmetrics/journal-crawler/internal/journal"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store writes journal rows into Postgres.
type Store struct {
	pool  pool
	table string
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "journals"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: p, table: table}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(p pool, table string) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "journals"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: p, table: table}, nil
}

// Init creates the journals table if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	journal_title TEXT NOT NULL UNIQUE,
	aims_and_scope TEXT,
	issn TEXT,
	subject_areas TEXT,
	impact_factor DOUBLE PRECISION,
	cite_score DOUBLE PRECISION,
	apc DOUBLE PRECISION,
	time_to_first_decision INTEGER,
	review_time INTEGER,
	submission_to_acceptance INTEGER,
	acceptance_to_publication INTEGER,
	acceptance_rate DOUBLE PRECISION,
	abstracting_indexing TEXT,
	shop_url TEXT,
	sciencedirect_url TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s table: %w", s.table, err)
	}
	return nil
}

// UpsertIfAbsent inserts the record unless a row with the same title exists,
// returning the row id either way. ON CONFLICT DO NOTHING keeps the existing
// row untouched; the follow-up select resolves its id.
func (s *Store) UpsertIfAbsent(ctx context.Context, record journal.Record) (int64, bool, error) {
	insert := fmt.Sprintf(`
INSERT INTO %s (
	journal_title, aims_and_scope, issn, subject_areas,
	impact_factor, cite_score, apc,
	time_to_first_decision, review_time,
	submission_to_acceptance, acceptance_to_publication,
	acceptance_rate, abstracting_indexing,
	shop_url, sciencedirect_url
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
) ON CONFLICT (journal_title) DO NOTHING
RETURNING id`, s.table)

	var id int64
	err := s.pool.QueryRow(ctx, insert,
		record.JournalTitle,
		record.AimsAndScope,
		record.ISSN,
		record.SubjectAreas,
		record.ImpactFactor,
		record.CiteScore,
		record.APC,
		record.TimeToFirstDecision,
		record.ReviewTime,
		record.SubmissionToAcceptance,
		record.AcceptanceToPublication,
		record.AcceptanceRate,
		record.AbstractingIndexing,
		record.ShopURL,
		record.ScienceDirectURL,
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("insert journal %q: %w", record.JournalTitle, err)
	}

	// Conflict: the title is already stored.
	lookup := fmt.Sprintf(`SELECT id FROM %s WHERE journal_title = $1`, s.table)
	if err := s.pool.QueryRow(ctx, lookup, record.JournalTitle).Scan(&id); err != nil {
		return 0, false, fmt.Errorf("lookup journal %q: %w", record.JournalTitle, err)
	}
	return id, false, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
