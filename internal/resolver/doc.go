// Package resolver decides whether a notified media item already has a
// matching danmaku asset.
//
// The pipeline runs fetch → merge → id-match → title-fallback → existence
// check. Identifier matching walks providers in fixed priority order
// (tmdb, douban, imdb, tvdb, bangumi) and stops on the first hit; the title
// fallback only runs when no identifier resolved. Every stage degrades to a
// data value on failure, so Resolve always returns a concrete Outcome and
// never an error.
package resolver
