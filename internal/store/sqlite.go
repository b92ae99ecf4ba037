package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"medallion/internal/domain"
)

// RunStore records one row per backtest run in a SQLite database, keeping the
// structured run history separate from the Parquet series files.
type RunStore struct {
	db *sql.DB
}

const runSchema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	ticker          TEXT    NOT NULL,
	interval        TEXT    NOT NULL,
	strategy        TEXT    NOT NULL,
	run_at          TEXT    NOT NULL,
	bars            INTEGER NOT NULL,
	trades          INTEGER NOT NULL,
	win_rate        REAL    NOT NULL,
	asset_return    REAL    NOT NULL,
	strategy_return REAL    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backtest_runs_ticker ON backtest_runs (ticker, interval);
`

// OpenRunStore opens (or creates) the run-history database at dbPath and
// ensures the schema exists.
func OpenRunStore(dbPath string) (*RunStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(runSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating run schema: %w", err)
	}
	return &RunStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts a run record and fills in its generated ID.
func (s *RunStore) SaveRun(ctx context.Context, run *domain.RunSummary) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO backtest_runs
		 (ticker, interval, strategy, run_at, bars, trades, win_rate, asset_return, strategy_return)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Ticker, string(run.Interval), run.Strategy,
		run.RunAt.UTC().Format(time.RFC3339),
		run.Bars, run.Trades, run.WinRate, run.AssetReturn, run.StrategyReturn,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	run.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs for a ticker, newest first, up to
// limit. A non-positive limit returns every run.
func (s *RunStore) ListRuns(ctx context.Context, ticker string, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded.
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ticker, interval, strategy, run_at, bars, trades, win_rate, asset_return, strategy_return
		 FROM backtest_runs
		 WHERE ticker = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		ticker, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunSummary
	for rows.Next() {
		var (
			r        domain.RunSummary
			interval string
			runAt    string
		)
		if err := rows.Scan(&r.ID, &r.Ticker, &interval, &r.Strategy, &runAt,
			&r.Bars, &r.Trades, &r.WinRate, &r.AssetReturn, &r.StrategyReturn); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Interval = domain.Interval(interval)
		if t, err := time.Parse(time.RFC3339, runAt); err == nil {
			r.RunAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
