// Package history persists run reports in a local SQLite database so past
// conformance runs can be listed and compared.
//
// Recording is optional; the engine never depends on this package.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jisp-lang/conformance/internal/runner"
)

//go:embed schema.sql
var schemaSQL string

// Store is the run-history database handle.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path. The schema is
// applied idempotently; re-opening an existing database is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect history database: %w", err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record persists one finished run with all of its per-check results in a
// single transaction.
func (s *Store) Record(ctx context.Context, rep *runner.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, finished_at, fail_fast, aborted, total, passed, skipped, corpus_failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rep.RunID,
		rep.StartedAt.UTC().Format(time.RFC3339Nano),
		rep.FinishedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(rep.FailFast),
		boolToInt(rep.Aborted),
		rep.Total,
		rep.Passed,
		rep.Skipped,
		rep.CorpusFailures,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_results
		(run_id, position, source, description, status, skip_reason, diagnostic)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("record run results: %w", err)
	}
	defer stmt.Close()

	for i, res := range rep.Results {
		var diagnostic sql.NullString
		if res.Diagnostic != nil {
			raw, err := json.Marshal(res.Diagnostic)
			if err != nil {
				return fmt.Errorf("record run results: marshal diagnostic: %w", err)
			}
			diagnostic = sql.NullString{String: string(raw), Valid: true}
		}

		_, err = stmt.ExecContext(ctx,
			rep.RunID, i, res.Source, res.Description, string(res.Status), res.SkipReason, diagnostic,
		)
		if err != nil {
			return fmt.Errorf("record run results: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// RunSummary is one row of run history.
type RunSummary struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	FailFast       bool      `json:"fail_fast"`
	Aborted        bool      `json:"aborted"`
	Total          int       `json:"total"`
	Passed         int       `json:"passed"`
	Skipped        int       `json:"skipped"`
	CorpusFailures int       `json:"corpus_failures"`
}

// Recent returns up to limit run summaries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, fail_fast, aborted, total, passed, skipped, corpus_failures
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			summary           RunSummary
			started, finished string
			failFast, aborted int
		)
		err := rows.Scan(&summary.ID, &started, &finished, &failFast, &aborted,
			&summary.Total, &summary.Passed, &summary.Skipped, &summary.CorpusFailures)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		summary.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("list runs: parse started_at: %w", err)
		}
		summary.FinishedAt, err = time.Parse(time.RFC3339Nano, finished)
		if err != nil {
			return nil, fmt.Errorf("list runs: parse finished_at: %w", err)
		}
		summary.FailFast = failFast != 0
		summary.Aborted = aborted != 0
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// Results returns the stored per-check results for one run, in run order.
func (s *Store) Results(ctx context.Context, runID string) ([]runner.CheckResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, description, status, skip_reason, diagnostic
		FROM run_results
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load run results: %w", err)
	}
	defer rows.Close()

	var out []runner.CheckResult
	for rows.Next() {
		var (
			res        runner.CheckResult
			status     string
			diagnostic sql.NullString
		)
		if err := rows.Scan(&res.Source, &res.Description, &status, &res.SkipReason, &diagnostic); err != nil {
			return nil, fmt.Errorf("load run results: %w", err)
		}
		res.Status = runner.CheckStatus(status)
		if diagnostic.Valid {
			if err := json.Unmarshal([]byte(diagnostic.String), &res.Diagnostic); err != nil {
				return nil, fmt.Errorf("load run results: parse diagnostic: %w", err)
			}
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load run results: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
