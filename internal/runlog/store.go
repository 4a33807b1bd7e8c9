package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const runColumns = "id, dump_path, outputs_json, namespace, workers, writer_interlock, status, started_at, finished_at, pages_seen, pages_emitted, redirects, invalid, written, lost, bytes_read, error_message"

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Begin records a new run in the running state.
func (s *Store) Begin(ctx context.Context, start RunStart) (*Run, error) {
	outputs, err := json.Marshal(nonNil(start.Outputs))
	if err != nil {
		return nil, fmt.Errorf("marshal outputs: %w", err)
	}
	run := &Run{
		ID:              uuid.NewString(),
		DumpPath:        start.DumpPath,
		Outputs:         nonNil(start.Outputs),
		Namespace:       start.Namespace,
		Workers:         start.Workers,
		WriterInterlock: start.WriterInterlock,
		Status:          StatusRunning,
		StartedAt:       time.Now().UTC(),
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            id, dump_path, outputs_json, namespace, workers, writer_interlock, status, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.DumpPath,
		string(outputs),
		run.Namespace,
		run.Workers,
		run.WriterInterlock,
		run.Status,
		run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish stores the final counters. A non-nil runErr marks the run failed.
func (s *Store) Finish(ctx context.Context, id string, result RunResult, runErr error) error {
	status := StatusCompleted
	var message any
	if runErr != nil {
		status = StatusFailed
		message = runErr.Error()
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, finished_at = ?, pages_seen = ?, pages_emitted = ?, redirects = ?,
             invalid = ?, written = ?, lost = ?, bytes_read = ?, error_message = ?
         WHERE id = ?`,
		status,
		time.Now().UTC().Format(timeLayout),
		result.PagesSeen,
		result.PagesEmitted,
		result.Redirects,
		result.Invalid,
		result.Written,
		result.Lost,
		result.BytesRead,
		message,
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Get fetches one run.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns up to limit runs, newest first. A limit <= 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		outputsJSON string
		statusStr   string
		startedRaw  string
		finishedRaw sql.NullString
		errMessage  sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.DumpPath,
		&outputsJSON,
		&run.Namespace,
		&run.Workers,
		&run.WriterInterlock,
		&statusStr,
		&startedRaw,
		&finishedRaw,
		&run.Result.PagesSeen,
		&run.Result.PagesEmitted,
		&run.Result.Redirects,
		&run.Result.Invalid,
		&run.Result.Written,
		&run.Result.Lost,
		&run.Result.BytesRead,
		&errMessage,
	); err != nil {
		return nil, err
	}

	run.Status = Status(statusStr)
	run.ErrorMessage = errMessage.String
	if err := json.Unmarshal([]byte(outputsJSON), &run.Outputs); err != nil {
		return nil, fmt.Errorf("decode outputs: %w", err)
	}
	started, err := time.Parse(timeLayout, startedRaw)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = started
	if finishedRaw.Valid && finishedRaw.String != "" {
		finished, err := time.Parse(timeLayout, finishedRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = &finished
	}
	return &run, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
