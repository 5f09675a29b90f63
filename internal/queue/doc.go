// Package queue persists danmaku search tasks in SQLite.
//
// When resolution decides no matching asset is present, the dispatcher
// enqueues a search task carrying the merged identifiers. A unique key
// derived from title/season/episode dedupes repeat notifications while a
// task is still active. The downstream search/download executor consumes
// tasks out of band; this package is the boundary.
package queue
