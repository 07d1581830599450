package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Archiver receives every report after it has been exported.
type Archiver interface {
	Archive(ctx context.Context, r *Report) error
}

// txStarter is satisfied by *pgxpool.Pool and *pgx.Conn.
type txStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS label_reports (
	id          UUID PRIMARY KEY,
	username    TEXT NOT NULL,
	source_file TEXT NOT NULL,
	output_name TEXT NOT NULL,
	total       INTEGER NOT NULL,
	positive    INTEGER NOT NULL,
	neutral     INTEGER NOT NULL,
	negative    INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS label_report_rows (
	report_id  UUID NOT NULL REFERENCES label_reports(id) ON DELETE CASCADE,
	row_index  INTEGER NOT NULL,
	username   TEXT NOT NULL,
	text       TEXT NOT NULL,
	sentiment  TEXT,
	PRIMARY KEY (report_id, row_index)
);
`

// PGArchive stores finished reports in PostgreSQL.
type PGArchive struct {
	db txStarter
}

// NewPGArchive creates an archive over db, typically a *pgxpool.Pool.
func NewPGArchive(db txStarter) *PGArchive {
	return &PGArchive{db: db}
}

// EnsureSchema creates the archive tables if they do not exist.
func (a *PGArchive) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.Exec(ctx, archiveSchema); err != nil {
		return fmt.Errorf("create archive tables: %w", err)
	}
	return nil
}

// Archive writes the report header and all of its rows in one transaction.
func (a *PGArchive) Archive(ctx context.Context, r *Report) error {
	tx, err := a.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	_, err = tx.Exec(ctx, `
		INSERT INTO label_reports
			(id, username, source_file, output_name, total, positive, neutral, negative, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.Username, r.SourceFile, r.OutputName,
		r.Summary.Total, r.Summary.Positive, r.Summary.Neutral, r.Summary.Negative,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", r.OutputName, err)
	}

	batch := &pgx.Batch{}
	for i, row := range r.Table.Rows {
		var sentiment *string
		if len(row) > 2 && row[2] != "" {
			sentiment = &row[2]
		}
		batch.Queue(`
			INSERT INTO label_report_rows (report_id, row_index, username, text, sentiment)
			VALUES ($1, $2, $3, $4, $5)`,
			r.ID, i, row[0], row[1], sentiment,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert report rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}
	return nil
}
