// Package catalog is the read model over the local danmaku catalog.
//
// The catalog records every known series/season, the provider identifiers
// collected for it, and per-episode danmaku bookkeeping (comment count and
// file path). The resolution engine only reads; rows are written by the
// out-of-band ingestion path, which is eventually consistent relative to
// webhook delivery. A lookup miss is therefore an expected state, never an
// error. Write helpers exist for ingestion tooling and tests.
package catalog
