package catalog

import "danmusync/internal/metadata"

// Entry is one known title/season in the catalog.
type Entry struct {
	ID     int64
	Title  string
	Season int
	IDs    metadata.IDSet
}

// EpisodeAsset is the danmaku bookkeeping for one episode of an entry. The
// path is a catalog web path; physical presence is the asset store's call.
type EpisodeAsset struct {
	CommentCount int
	DanmakuPath  string
}

// SeriesParams describes a series row for the write helpers.
type SeriesParams struct {
	Title  string
	Season int
	IDs    metadata.IDSet
}
