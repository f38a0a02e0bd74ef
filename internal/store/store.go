package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"storyreel/internal/config"
)

// ErrRunNotFound is returned when a run id has no ledger entry.
var ErrRunNotFound = errors.New("run not found")

// Store manages the run ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the run ledger.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.StorePath())
}

// OpenPath opens the ledger at an explicit database path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// fixed-width so timestamps order lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

// BeginRun records a new running assembly attempt.
func (s *Store) BeginRun(ctx context.Context, videoID, theme string, seed int64) (*Run, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, errors.New("video id is required")
	}
	id := uuid.NewString()
	ts := s.timestamp()
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, video_id, theme, status, seed, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, videoID, theme, StatusRunning, seed, ts, ts,
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.GetRun(ctx, id)
}

// SetStage records the stage a running assembly entered.
func (s *Store) SetStage(ctx context.Context, id, stage string) error {
	return s.updateRun(ctx, id, `stage = ?`, nullableString(stage))
}

// Complete marks a run as finished and records its output.
func (s *Store) Complete(ctx context.Context, id, outputPath string, duration float64) error {
	return s.updateRun(ctx, id,
		`status = ?, output_path = ?, duration_seconds = ?, error_message = NULL`,
		StatusCompleted, nullableString(outputPath), duration,
	)
}

// Fail marks a run with a terminal failure status.
func (s *Store) Fail(ctx context.Context, id string, status Status, message string) error {
	if !status.Terminal() || status == StatusCompleted {
		return fmt.Errorf("invalid failure status %q", status)
	}
	return s.updateRun(ctx, id, `status = ?, error_message = ?`, status, nullableString(message))
}

func (s *Store) updateRun(ctx context.Context, id, set string, args ...any) error {
	args = append(args, s.timestamp(), id)
	res, err := s.execWithRetry(ctx, `UPDATE runs SET `+set+`, updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

// GetRun fetches a run by id. Unique id prefixes are accepted.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY created_at LIMIT 2`, id, id+"%")
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()
	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if run.ID == id {
			return run, nil
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	case 1:
		return runs[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// ListRuns returns runs newest first, optionally filtered by status. A
// non-positive limit returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int, statuses ...Status) ([]*Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + runColumns + ` FROM runs`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestCompleted returns the newest completed run for a video, or nil.
func (s *Store) LatestCompleted(ctx context.Context, videoID string) (*Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE video_id = ? AND status = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		videoID, StatusCompleted,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest completed run: %w", err)
	}
	return run, nil
}

// AbandonRunning marks runs left in the running state by a crashed process
// as failed. It returns the number of runs updated.
func (s *Store) AbandonRunning(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, error_message = 'interrupted before completion', updated_at = ?
         WHERE status = ?`,
		StatusFailed, s.timestamp(), StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("abandon running runs: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of runs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// PruneBefore deletes terminal runs last updated before cutoff together with
// their allocations and misses.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM runs WHERE status != ? AND updated_at < ?`,
		StatusRunning, cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
