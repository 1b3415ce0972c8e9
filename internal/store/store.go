package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/sameer-vaidya/marketbuzz/models"
)

// Store persists pipeline runs, their raw record batches and the resulting
// aggregate windows in Postgres.
type Store struct {
	DB *sql.DB
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.DB.Close() }

// SaveRun inserts the run header row.
func (s *Store) SaveRun(ctx context.Context, run models.Run) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO runs (id, source, strategy, window_width_seconds, record_count, deduped, skipped, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		run.ID, run.Source, run.Strategy, int64(run.WindowWidth/time.Second),
		run.RecordCount, run.Deduped, run.Skipped, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", run.ID, err)
	}
	return nil
}

// SaveRecords bulk-inserts the raw records of a run via COPY.
func (s *Store) SaveRecords(ctx context.Context, runID string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning records tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("records",
		"run_id", "record_id", "author", "ts", "content", "likes", "reshares", "replies"))
	if err != nil {
		return fmt.Errorf("preparing records copy: %w", err)
	}
	for _, rec := range records {
		var ts interface{}
		if !rec.Timestamp.IsZero() {
			ts = rec.Timestamp
		}
		if _, err := stmt.ExecContext(ctx, runID, rec.ID, rec.Author, ts, rec.Text,
			rec.Likes, rec.Reshares, rec.Replies); err != nil {
			return fmt.Errorf("buffering record %s: %w", rec.ID, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flushing records copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("closing records copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing records: %w", err)
	}
	return nil
}

// SaveWindows stores the aggregate series of a run.
func (s *Store) SaveWindows(ctx context.Context, runID string, windows []models.AggregateWindow) error {
	if len(windows) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning windows tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, w := range windows {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO signal_windows (run_id, window_start, mean, std, count, ci_lower, ci_upper)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			runID, w.WindowStart, w.Mean, w.Std, w.Count, w.CILower, w.CIUpper); err != nil {
			return fmt.Errorf("saving window %s: %w", w.WindowStart, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing windows: %w", err)
	}
	return nil
}

// GetWindows returns the aggregate series of a run ordered by window start.
func (s *Store) GetWindows(ctx context.Context, runID string) ([]models.AggregateWindow, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT window_start, mean, std, count, ci_lower, ci_upper
FROM signal_windows WHERE run_id=$1 ORDER BY window_start ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying windows for run %s: %w", runID, err)
	}
	defer rows.Close()

	var windows []models.AggregateWindow
	for rows.Next() {
		var w models.AggregateWindow
		if err := rows.Scan(&w.WindowStart, &w.Mean, &w.Std, &w.Count, &w.CILower, &w.CIUpper); err != nil {
			return nil, fmt.Errorf("scanning window: %w", err)
		}
		w.WindowStart = w.WindowStart.UTC()
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating windows: %w", err)
	}
	return windows, nil
}

// GetRun fetches one run header.
func (s *Store) GetRun(ctx context.Context, runID string) (models.Run, error) {
	var run models.Run
	var widthSeconds int64
	err := s.DB.QueryRowContext(ctx, `
SELECT id, source, strategy, window_width_seconds, record_count, deduped, skipped, created_at
FROM runs WHERE id=$1`, runID).Scan(
		&run.ID, &run.Source, &run.Strategy, &widthSeconds,
		&run.RecordCount, &run.Deduped, &run.Skipped, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Run{}, models.ErrRunNotFound
	}
	if err != nil {
		return models.Run{}, fmt.Errorf("querying run %s: %w", runID, err)
	}
	run.WindowWidth = time.Duration(widthSeconds) * time.Second
	run.CreatedAt = run.CreatedAt.UTC()
	return run, nil
}

// ListRuns returns run headers, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, source, strategy, window_width_seconds, record_count, deduped, skipped, created_at
FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		var widthSeconds int64
		if err := rows.Scan(&run.ID, &run.Source, &run.Strategy, &widthSeconds,
			&run.RecordCount, &run.Deduped, &run.Skipped, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.WindowWidth = time.Duration(widthSeconds) * time.Second
		run.CreatedAt = run.CreatedAt.UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}
