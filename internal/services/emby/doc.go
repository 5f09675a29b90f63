// Package emby implements the metadata fetcher against the Emby server API.
//
// The client resolves a user id once per process (item metadata is only
// served from user-scoped endpoints) and then fetches provider identifiers
// for individual items. Every failure is mapped to a tagged Failure value
// and an empty identifier set; no call ever surfaces an error into the
// resolution pipeline.
package emby
