package testsupport

import (
	"context"
	"testing"

	"danmusync/internal/catalog"
	"danmusync/internal/config"
	"danmusync/internal/queue"
)

// MustOpenCatalog opens a catalog.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg.CatalogDBPath())
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOpenQueue opens a queue.Store for tests and registers cleanup.
func MustOpenQueue(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg.QueueDBPath())
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewSeries inserts a catalog series for tests and returns its id.
func NewSeries(t testing.TB, store *catalog.Store, params catalog.SeriesParams) int64 {
	t.Helper()

	id, err := store.InsertSeries(context.Background(), params)
	if err != nil {
		t.Fatalf("store.InsertSeries: %v", err)
	}
	return id
}
