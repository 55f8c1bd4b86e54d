package reporting

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ethereum-optimism/infra/op-testreport/types"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	started_at    TEXT NOT NULL,
	ended_at      TEXT NOT NULL,
	duration_ms   INTEGER NOT NULL,
	browser       TEXT NOT NULL,
	target_url    TEXT NOT NULL,
	test_count    INTEGER NOT NULL,
	pass_count    INTEGER NOT NULL,
	fail_count    INTEGER NOT NULL,
	skip_count    INTEGER NOT NULL,
	unknown_count INTEGER NOT NULL,
	recorded_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS file_results (
	run_id        TEXT NOT NULL REFERENCES runs(run_id),
	file          TEXT NOT NULL,
	suite         TEXT NOT NULL,
	cid           TEXT NOT NULL,
	duration_ms   INTEGER NOT NULL,
	test_count    INTEGER NOT NULL,
	pass_count    INTEGER NOT NULL,
	fail_count    INTEGER NOT NULL,
	skip_count    INTEGER NOT NULL,
	unknown_count INTEGER NOT NULL,
	annotations   TEXT NOT NULL,
	PRIMARY KEY (run_id, file)
);

CREATE INDEX IF NOT EXISTS idx_runs_recorded_at ON runs(recorded_at);
`

// RunSummary is one recorded run of the history
type RunSummary struct {
	RunID      string    `json:"runId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Duration   int64     `json:"duration"`
	Browser    string    `json:"browser"`
	TargetURL  string    `json:"targetUrl"`
	RecordedAt time.Time `json:"recordedAt"`
	types.AggregateCount
}

// HistorySink records every report into a SQLite database so runs can be
// compared over time
type HistorySink struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenHistory opens, and creates if needed, the history database at path
func OpenHistory(path string) (*HistorySink, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("history: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: failed to initialize schema: %w", err)
	}
	return &HistorySink{db: db}, nil
}

func (s *HistorySink) Name() string {
	return "history"
}

func (s *HistorySink) Close() error {
	return s.db.Close()
}

func (s *HistorySink) Write(ctx context.Context, result *types.OverallResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	o := result.Overview
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (run_id, started_at, ended_at, duration_ms, browser, target_url,
			test_count, pass_count, fail_count, skip_count, unknown_count, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, o.Start.UTC().Format(time.RFC3339Nano), o.End.UTC().Format(time.RFC3339Nano),
		o.Duration, o.Browser, o.TargetURL,
		o.TestCount, o.PassCount, o.FailCount, o.SkipCount, o.UnknownCount,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("history: failed to insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM file_results WHERE run_id = ?", result.RunID); err != nil {
		return fmt.Errorf("history: failed to clear file results: %w", err)
	}
	for _, root := range result.Suites.Roots() {
		var c types.AggregateCount
		if root.Counts != nil {
			c = *root.Counts
		}
		annotations, err := json.Marshal(root.Annotations)
		if err != nil {
			return fmt.Errorf("history: failed to encode annotations: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO file_results (run_id, file, suite, cid, duration_ms,
				test_count, pass_count, fail_count, skip_count, unknown_count, annotations)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			result.RunID, root.File, root.Title, root.CID, root.Duration,
			c.TestCount, c.PassCount, c.FailCount, c.SkipCount, c.UnknownCount,
			string(annotations),
		)
		if err != nil {
			return fmt.Errorf("history: failed to insert file result %s: %w", root.File, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: failed to commit transaction: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recently recorded first
func (s *HistorySink) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, ended_at, duration_ms, browser, target_url,
			test_count, pass_count, fail_count, skip_count, unknown_count, recorded_at
		FROM runs ORDER BY recorded_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r          RunSummary
			start, end string
			recorded   int64
		)
		if err := rows.Scan(&r.RunID, &start, &end, &r.Duration, &r.Browser, &r.TargetURL,
			&r.TestCount, &r.PassCount, &r.FailCount, &r.SkipCount, &r.UnknownCount, &recorded); err != nil {
			return nil, fmt.Errorf("history: failed to scan run: %w", err)
		}
		r.Start, _ = time.Parse(time.RFC3339Nano, start)
		r.End, _ = time.Parse(time.RFC3339Nano, end)
		r.RecordedAt = time.UnixMilli(recorded)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: failed to read runs: %w", err)
	}
	return runs, nil
}

// FileHistory returns the per-run totals recorded for file, newest first
func (s *HistorySink) FileHistory(ctx context.Context, file string, limit int) ([]types.AggregateCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT f.test_count, f.pass_count, f.fail_count, f.skip_count, f.unknown_count
		FROM file_results f JOIN runs r ON r.run_id = f.run_id
		WHERE f.file = ? ORDER BY r.recorded_at DESC LIMIT ?`, file, limit)
	if err != nil {
		return nil, fmt.Errorf("history: failed to query file history: %w", err)
	}
	defer rows.Close()

	var out []types.AggregateCount
	for rows.Next() {
		var c types.AggregateCount
		if err := rows.Scan(&c.TestCount, &c.PassCount, &c.FailCount, &c.SkipCount, &c.UnknownCount); err != nil {
			return nil, fmt.Errorf("history: failed to scan file history: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
