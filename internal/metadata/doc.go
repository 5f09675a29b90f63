// Package metadata models cross-reference identifier sets for media items
// and the rules that combine them.
//
// An IDSet carries the provider identifiers (TMDB, Douban, IMDb, TVDB,
// Bangumi) known for one media item plus optional title, season, and episode
// hints. Sets are built fresh per request from up to three sources: a
// series-level Emby lookup, an item-level Emby lookup, and the raw provider
// block embedded in the webhook payload. Merge combines them under a fixed
// field-level precedence; ExtractProviderIDs tolerates the heterogeneous key
// naming upstream services use for the same provider.
package metadata
