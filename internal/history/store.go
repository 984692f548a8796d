package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"filesorter/internal/config"
	"filesorter/internal/organizer"
)

var (
	ErrRunNotFound = errors.New("run not found")
	ErrAmbiguousID = errors.New("run id prefix matches several runs")
)

// Origins recorded with each run.
const (
	OriginSort   = "sort"
	OriginDaemon = "daemon"
)

// Run is the stored summary of one organize run.
type Run struct {
	ID         string    `json:"id"`
	Root       string    `json:"root"`
	Origin     string    `json:"origin"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Moved      int       `json:"moved"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Cancelled  bool      `json:"cancelled"`
}

// Entry is the stored outcome of one file.
type Entry struct {
	Seq         int    `json:"seq"`
	Source      string `json:"source"`
	Status      string `json:"status"`
	Destination string `json:"destination,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Error       string `json:"error,omitempty"`
	Warning     string `json:"warning,omitempty"`
}

// RunDetail pairs a run with its outcomes in processing order.
type RunDetail struct {
	Run     Run     `json:"run"`
	Entries []Entry `json:"entries"`
}

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the history database under the configured state dir.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryPath())
}

// OpenPath opens the database at path and applies migrations.
func OpenPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas below are per connection.
	db.SetMaxOpenConns(1)

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

	store := &Store{db: db, path: filepath.Clean(path)}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores report and all of its outcomes in one transaction.
func (s *Store) Record(ctx context.Context, report *organizer.RunReport, origin string) error {
	if report == nil {
		return errors.New("report is nil")
	}
	if origin == "" {
		origin = OriginSort
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, root, origin, started_at, finished_at, moved, skipped, failed, cancelled)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.Root,
		origin,
		formatTime(report.StartedAt),
		nullableTime(report.FinishedAt),
		report.Moved,
		report.Skipped,
		report.Failed,
		boolToInt(report.Cancelled),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outcomes (run_id, seq, source, status, destination, reason, kind, error_message, warning)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range report.Outcomes {
		if _, err := stmt.ExecContext(ctx,
			report.ID,
			i,
			o.Source,
			string(o.Status),
			nullableString(o.Destination),
			nullableString(string(o.Reason)),
			nullableString(string(o.Kind)),
			nullableString(o.ErrorText()),
			nullableString(o.Warning),
		); err != nil {
			return fmt.Errorf("insert outcome %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = "id, root, origin, started_at, finished_at, moved, skipped, failed, cancelled"

// List returns the most recent runs first. A limit of zero or less returns
// every run.
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
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns one run with its outcomes. A unique ID prefix is accepted.
func (s *Store) Get(ctx context.Context, id string) (*RunDetail, error) {
	run, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return &RunDetail{Run: run, Entries: entries}, nil
}

func (s *Store) lookup(ctx context.Context, id string) (Run, error) {
	if id == "" {
		return Run{}, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? ESCAPE '\' LIMIT 2`, escapeLike(id)+"%")
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()
	var matches []Run
	for rows.Next() {
		match, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(matches) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return Run{}, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}

func (s *Store) entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, source, status, destination, reason, kind, error_message, warning
         FROM outcomes WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                                          Entry
			destination, reason, kind, errMsg, warning sql.NullString
		)
		if err := rows.Scan(&e.Seq, &e.Source, &e.Status, &destination, &reason, &kind, &errMsg, &warning); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		e.Destination = destination.String
		e.Reason = reason.String
		e.Kind = kind.String
		e.Error = errMsg.String
		e.Warning = warning.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep runs and returns how many were
// removed. keep <= 0 disables pruning.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const keepSet = `SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`
	if _, err := tx.ExecContext(ctx, `DELETE FROM outcomes WHERE run_id NOT IN (`+keepSet+`)`, keep); err != nil {
		return 0, fmt.Errorf("prune outcomes: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id NOT IN (`+keepSet+`)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return removed, nil
}
