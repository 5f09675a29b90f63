package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"danmusync/internal/metadata"
	"danmusync/internal/textutil"
)

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
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

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
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
		return fmt.Errorf("apply catalog schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// providerColumn maps a provider tag to its series_ids column. The returned
// name is only ever interpolated from this whitelist.
func providerColumn(p metadata.Provider) (string, bool) {
	switch p {
	case metadata.ProviderTMDB:
		return "tmdb_id", true
	case metadata.ProviderDouban:
		return "douban_id", true
	case metadata.ProviderIMDB:
		return "imdb_id", true
	case metadata.ProviderTVDB:
		return "tvdb_id", true
	case metadata.ProviderBangumi:
		return "bangumi_id", true
	default:
		return "", false
	}
}

// LookupProvider returns every entry carrying the given provider identifier.
func (s *Store) LookupProvider(ctx context.Context, provider metadata.Provider, id string) ([]Entry, error) {
	column, ok := providerColumn(provider)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
	query := fmt.Sprintf(`
SELECT s.id, s.title, s.season,
       COALESCE(i.tmdb_id, ''), COALESCE(i.douban_id, ''), COALESCE(i.imdb_id, ''),
       COALESCE(i.tvdb_id, ''), COALESCE(i.bangumi_id, '')
FROM series s
JOIN series_ids i ON i.series_id = s.id
WHERE i.%s = ?
ORDER BY s.season, s.id`, column)
	return s.queryEntries(ctx, query, id)
}

// LookupTitleKey returns every entry whose normalized title matches the key.
func (s *Store) LookupTitleKey(ctx context.Context, key string) ([]Entry, error) {
	const query = `
SELECT s.id, s.title, s.season,
       COALESCE(i.tmdb_id, ''), COALESCE(i.douban_id, ''), COALESCE(i.imdb_id, ''),
       COALESCE(i.tvdb_id, ''), COALESCE(i.bangumi_id, '')
FROM series s
LEFT JOIN series_ids i ON i.series_id = s.id
WHERE s.title_key = ?
ORDER BY s.season, s.id`
	return s.queryEntries(ctx, query, key)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		entry.IDs = metadata.EmptySet()
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.Season,
			&entry.IDs.TMDB, &entry.IDs.Douban, &entry.IDs.IMDB,
			&entry.IDs.TVDB, &entry.IDs.Bangumi); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog entries: %w", err)
	}
	return entries, nil
}

// Episode returns the danmaku bookkeeping for one episode of an entry. The
// second return value reports whether the episode row exists at all.
func (s *Store) Episode(ctx context.Context, seriesID int64, episodeIndex int) (EpisodeAsset, bool, error) {
	const query = `
SELECT comment_count, danmaku_path
FROM episodes
WHERE series_id = ? AND episode_index = ?`
	var asset EpisodeAsset
	err := s.db.QueryRowContext(ctx, query, seriesID, episodeIndex).Scan(&asset.CommentCount, &asset.DanmakuPath)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return EpisodeAsset{}, false, nil
	case err != nil:
		return EpisodeAsset{}, false, fmt.Errorf("query episode: %w", err)
	}
	return asset, true, nil
}

// InsertSeries adds a series row plus its provider identifiers. Used by
// ingestion tooling and tests; the resolution engine never writes.
func (s *Store) InsertSeries(ctx context.Context, params SeriesParams) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert series: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx,
		`INSERT INTO series (title, title_key, season, created_at) VALUES (?, ?, ?, ?)`,
		params.Title, textutil.TitleKey(params.Title), params.Season, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert series: %w", err)
	}
	seriesID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("series insert id: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO series_ids (series_id, tmdb_id, douban_id, imdb_id, tvdb_id, bangumi_id)
		 VALUES (?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''))`,
		seriesID, params.IDs.TMDB, params.IDs.Douban, params.IDs.IMDB, params.IDs.TVDB, params.IDs.Bangumi)
	if err != nil {
		return 0, fmt.Errorf("insert series ids: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert series: %w", err)
	}
	return seriesID, nil
}

// UpsertEpisode records danmaku bookkeeping for an episode.
func (s *Store) UpsertEpisode(ctx context.Context, seriesID int64, episodeIndex, commentCount int, danmakuPath string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO episodes (series_id, episode_index, comment_count, danmaku_path)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (series_id, episode_index)
		 DO UPDATE SET comment_count = excluded.comment_count, danmaku_path = excluded.danmaku_path`,
		seriesID, episodeIndex, commentCount, danmakuPath)
	if err != nil {
		return fmt.Errorf("upsert episode: %w", err)
	}
	return nil
}
