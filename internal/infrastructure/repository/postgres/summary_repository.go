// Package postgres persists completed-summary events for the worker. The
// table is the project's audit trail of what was summarized, not a cache;
// summaries themselves are returned synchronously and never stored in full.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/arxiv-simplifier/internal/core/domain"
)

type SummaryRepository struct {
	db *sql.DB
}

func NewSummaryRepository(db *sql.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *SummaryRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS summaries (
	request_id TEXT PRIMARY KEY,
	arxiv_id TEXT NOT NULL,
	title TEXT NOT NULL,
	explanation_style TEXT NOT NULL,
	gist TEXT NOT NULL,
	truncated BOOLEAN NOT NULL DEFAULT FALSE,
	completed_at TIMESTAMPTZ NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS summaries_arxiv_id_idx ON summaries (arxiv_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure summaries schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Insert is idempotent on request_id so a replayed event does not fail the
// worker.
func (r *SummaryRepository) Insert(ctx context.Context, event domain.SummaryCompleted) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO summaries (request_id, arxiv_id, title, explanation_style, gist, truncated, completed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (request_id) DO NOTHING
`, event.RequestID, event.ArxivID, event.Title, event.ExplanationStyle, event.Gist, event.Truncated, event.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}
