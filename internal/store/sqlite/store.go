// Package sqlite implements journal.Store on a local database file. This is
// the backend the single-process crawl deployment uses.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // sqlite driver

	"github.com/litmetrics/journal-crawler/internal/journal"
)

// Store persists journal records in a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return &Store{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS journals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	journal_title TEXT NOT NULL UNIQUE,
	aims_and_scope TEXT,
	issn TEXT,
	subject_areas TEXT,
	impact_factor REAL,
	cite_score REAL,
	apc REAL,
	time_to_first_decision INTEGER,
	review_time INTEGER,
	submission_to_acceptance INTEGER,
	acceptance_to_publication INTEGER,
	acceptance_rate REAL,
	abstracting_indexing TEXT,
	shop_url TEXT,
	sciencedirect_url TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Init creates the journals table if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create journals table: %w", err)
	}
	return nil
}

// UpsertIfAbsent returns the id of the existing row for the record's title,
// or inserts the record and returns the generated id. Existing rows are never
// updated.
func (s *Store) UpsertIfAbsent(ctx context.Context, record journal.Record) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM journals WHERE journal_title = ?`,
		record.JournalTitle,
	).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("lookup journal %q: %w", record.JournalTitle, err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO journals (
			journal_title, aims_and_scope, issn, subject_areas,
			impact_factor, cite_score, apc,
			time_to_first_decision, review_time,
			submission_to_acceptance, acceptance_to_publication,
			acceptance_rate, abstracting_indexing,
			shop_url, sciencedirect_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
	)
	if err != nil {
		return 0, false, fmt.Errorf("insert journal %q: %w", record.JournalTitle, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("read inserted id: %w", err)
	}
	return id, true, nil
}

// Close shuts down the underlying connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite database: %w", err)
	}
	return nil
}
