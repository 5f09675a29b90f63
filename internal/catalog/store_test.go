package catalog_test

import (
	"context"
	"path/filepath"
	"testing"

	"danmusync/internal/catalog"
	"danmusync/internal/metadata"
)

func openStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedSeries(t *testing.T, store *catalog.Store, title string, season int, ids metadata.IDSet) int64 {
	t.Helper()
	id, err := store.InsertSeries(context.Background(), catalog.SeriesParams{Title: title, Season: season, IDs: ids})
	if err != nil {
		t.Fatalf("insert series: %v", err)
	}
	return id
}

func TestLookupProvider(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ids := metadata.EmptySet()
	ids.TMDB = "240411"
	seriesID := seedSeries(t, store, "Dan Da Dan", 2, ids)

	entries, err := store.LookupProvider(context.Background(), metadata.ProviderTMDB, "240411")
	if err != nil {
		t.Fatalf("LookupProvider: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != seriesID {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].Season != 2 || entries[0].IDs.TMDB != "240411" {
		t.Fatalf("unexpected entry fields: %+v", entries[0])
	}

	entries, err = store.LookupProvider(context.Background(), metadata.ProviderDouban, "240411")
	if err != nil {
		t.Fatalf("LookupProvider: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected miss for other provider, got %+v", entries)
	}
}

func TestLookupProviderMultipleSeasons(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ids := metadata.EmptySet()
	ids.TMDB = "55"
	seedSeries(t, store, "Show", 2, ids)
	seedSeries(t, store, "Show", 1, ids)

	entries, err := store.LookupProvider(context.Background(), metadata.ProviderTMDB, "55")
	if err != nil {
		t.Fatalf("LookupProvider: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected both seasons, got %+v", entries)
	}
	if entries[0].Season != 1 || entries[1].Season != 2 {
		t.Fatalf("expected season ordering, got %+v", entries)
	}
}

func TestLookupTitleKey(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	seedSeries(t, store, "胆大党 第二季", 2, metadata.EmptySet())

	entries, err := store.LookupTitleKey(context.Background(), "胆大党第二季")
	if err != nil {
		t.Fatalf("LookupTitleKey: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "胆大党 第二季" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestEpisodeBookkeeping(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	seriesID := seedSeries(t, store, "Show", 1, metadata.EmptySet())

	if _, ok, err := store.Episode(context.Background(), seriesID, 3); err != nil || ok {
		t.Fatalf("expected missing episode, got ok=%v err=%v", ok, err)
	}

	if err := store.UpsertEpisode(context.Background(), seriesID, 3, 1500, "/danmaku/show/3.xml"); err != nil {
		t.Fatalf("UpsertEpisode: %v", err)
	}
	asset, ok, err := store.Episode(context.Background(), seriesID, 3)
	if err != nil || !ok {
		t.Fatalf("expected episode, got ok=%v err=%v", ok, err)
	}
	if asset.CommentCount != 1500 || asset.DanmakuPath != "/danmaku/show/3.xml" {
		t.Fatalf("unexpected asset: %+v", asset)
	}

	if err := store.UpsertEpisode(context.Background(), seriesID, 3, 0, ""); err != nil {
		t.Fatalf("UpsertEpisode update: %v", err)
	}
	asset, _, err = store.Episode(context.Background(), seriesID, 3)
	if err != nil {
		t.Fatalf("Episode: %v", err)
	}
	if asset.CommentCount != 0 {
		t.Fatalf("expected updated comment count, got %+v", asset)
	}
}
