package catalog

// schemaVersion is stored in PRAGMA user_version. Bump on schema changes.
const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS series (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    title      TEXT    NOT NULL,
    title_key  TEXT    NOT NULL,
    season     INTEGER NOT NULL DEFAULT 1,
    created_at TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS series_ids (
    series_id  INTEGER PRIMARY KEY REFERENCES series(id) ON DELETE CASCADE,
    tmdb_id    TEXT,
    douban_id  TEXT,
    imdb_id    TEXT,
    tvdb_id    TEXT,
    bangumi_id TEXT
);

CREATE TABLE IF NOT EXISTS episodes (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    series_id     INTEGER NOT NULL REFERENCES series(id) ON DELETE CASCADE,
    episode_index INTEGER NOT NULL,
    comment_count INTEGER NOT NULL DEFAULT 0,
    danmaku_path  TEXT    NOT NULL DEFAULT '',
    UNIQUE (series_id, episode_index)
);

CREATE INDEX IF NOT EXISTS idx_series_title_key ON series(title_key);
CREATE INDEX IF NOT EXISTS idx_series_ids_tmdb ON series_ids(tmdb_id);
CREATE INDEX IF NOT EXISTS idx_series_ids_douban ON series_ids(douban_id);
CREATE INDEX IF NOT EXISTS idx_series_ids_imdb ON series_ids(imdb_id);
CREATE INDEX IF NOT EXISTS idx_series_ids_tvdb ON series_ids(tvdb_id);
CREATE INDEX IF NOT EXISTS idx_series_ids_bangumi ON series_ids(bangumi_id);
`
