package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"danmusync/internal/metadata"
)

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS search_tasks (
    id         TEXT PRIMARY KEY,
    unique_key TEXT    NOT NULL,
    title      TEXT    NOT NULL,
    media_type TEXT    NOT NULL,
    season     INTEGER NOT NULL,
    episode    INTEGER NOT NULL,
    year       INTEGER NOT NULL DEFAULT 0,
    tmdb_id    TEXT    NOT NULL DEFAULT '',
    douban_id  TEXT    NOT NULL DEFAULT '',
    imdb_id    TEXT    NOT NULL DEFAULT '',
    tvdb_id    TEXT    NOT NULL DEFAULT '',
    bangumi_id TEXT    NOT NULL DEFAULT '',
    status     TEXT    NOT NULL,
    created_at TEXT    NOT NULL,
    updated_at TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_tasks_key ON search_tasks(unique_key);
CREATE INDEX IF NOT EXISTS idx_search_tasks_status ON search_tasks(status);
`

// ErrNotFound is returned when a task id does not exist.
var ErrNotFound = errors.New("search task not found")

// Store manages search task persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the task database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure queue directory: %w", err)
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
	if err := store.applyMigrations(context.Background()); err != nil {
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

func (s *Store) applyMigrations(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply queue schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// Enqueue inserts a pending search task unless an active task with the same
// unique key already exists. The returned bool reports whether a new task
// was created.
func (s *Store) Enqueue(ctx context.Context, task SearchTask) (SearchTask, bool, error) {
	if task.UniqueKey == "" {
		task.UniqueKey = UniqueKeyFor(task.Title, task.Season, task.Episode)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SearchTask{}, false, fmt.Errorf("begin enqueue: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	existing, err := scanTask(tx.QueryRowContext(ctx,
		selectTaskSQL+` WHERE unique_key = ? AND status IN (`+activePlaceholders()+`) LIMIT 1`,
		append([]any{task.UniqueKey}, activeArgs()...)...))
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return SearchTask{}, false, fmt.Errorf("check active task: %w", err)
	}

	now := time.Now().UTC()
	task.ID = uuid.NewString()
	task.Status = StatusPending
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
INSERT INTO search_tasks
    (id, unique_key, title, media_type, season, episode, year,
     tmdb_id, douban_id, imdb_id, tvdb_id, bangumi_id,
     status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.UniqueKey, task.Title, task.MediaType, task.Season, task.Episode, task.Year,
		task.IDs.TMDB, task.IDs.Douban, task.IDs.IMDB, task.IDs.TVDB, task.IDs.Bangumi,
		task.Status, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return SearchTask{}, false, fmt.Errorf("insert search task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return SearchTask{}, false, fmt.Errorf("commit enqueue: %w", err)
	}
	return task, true, nil
}

// List returns every task ordered most recent first.
func (s *Store) List(ctx context.Context) ([]SearchTask, error) {
	rows, err := s.db.QueryContext(ctx, selectTaskSQL+` ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list search tasks: %w", err)
	}
	defer rows.Close()

	var tasks []SearchTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan search task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search tasks: %w", err)
	}
	return tasks, nil
}

// UpdateStatus transitions a task to the given status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE search_tasks SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const selectTaskSQL = `
SELECT id, unique_key, title, media_type, season, episode, year,
       tmdb_id, douban_id, imdb_id, tvdb_id, bangumi_id,
       status, created_at, updated_at
FROM search_tasks`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (SearchTask, error) {
	var task SearchTask
	var createdAt, updatedAt string
	task.IDs = metadata.EmptySet()
	if err := row.Scan(&task.ID, &task.UniqueKey, &task.Title, &task.MediaType,
		&task.Season, &task.Episode, &task.Year,
		&task.IDs.TMDB, &task.IDs.Douban, &task.IDs.IMDB, &task.IDs.TVDB, &task.IDs.Bangumi,
		&task.Status, &createdAt, &updatedAt); err != nil {
		return SearchTask{}, err
	}
	if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
		task.CreatedAt = parsed
	}
	if parsed, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		task.UpdatedAt = parsed
	}
	return task, nil
}

func activePlaceholders() string {
	return strings.TrimSuffix(strings.Repeat("?, ", len(activeStatuses)), ", ")
}

func activeArgs() []any {
	args := make([]any, len(activeStatuses))
	for i, status := range activeStatuses {
		args[i] = status
	}
	return args
}
