package queue

import (
	"fmt"
	"time"

	"danmusync/internal/metadata"
)

// Status represents the lifecycle of a search task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusDispatched Status = "dispatched"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// activeStatuses are the states that block re-enqueueing the same key.
var activeStatuses = []Status{StatusPending, StatusDispatched}

// SearchTask is one queued danmaku search request.
type SearchTask struct {
	ID        string
	UniqueKey string
	Title     string
	MediaType string
	Season    int
	Episode   int
	Year      int
	IDs       metadata.IDSet
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UniqueKeyFor derives the dedupe key for a title/season/episode triple.
func UniqueKeyFor(title string, season, episode int) string {
	return fmt.Sprintf("webhook-search-%s-S%d-E%d", title, season, episode)
}
