package resolver_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"danmusync/internal/catalog"
	"danmusync/internal/logging"
	"danmusync/internal/metadata"
	"danmusync/internal/resolver"
)

type fakeFetcher struct {
	series metadata.IDSet
	item   metadata.IDSet
	called bool
}

func (f *fakeFetcher) FetchBoth(ctx context.Context, itemID, seriesID string) (metadata.IDSet, metadata.IDSet) {
	f.called = true
	return f.series, f.item
}

type fakeCatalog struct {
	byProvider    map[string][]catalog.Entry
	byTitle       map[string][]catalog.Entry
	providerCalls []string
	titleCalls    []string
	providerErr   error
}

func (f *fakeCatalog) LookupProvider(ctx context.Context, provider metadata.Provider, id string) ([]catalog.Entry, error) {
	f.providerCalls = append(f.providerCalls, fmt.Sprintf("%s:%s", provider, id))
	if f.providerErr != nil {
		return nil, f.providerErr
	}
	return f.byProvider[fmt.Sprintf("%s:%s", provider, id)], nil
}

func (f *fakeCatalog) LookupTitleKey(ctx context.Context, key string) ([]catalog.Entry, error) {
	f.titleCalls = append(f.titleCalls, key)
	return f.byTitle[key], nil
}

type fakeAssets struct {
	present map[int64]bool
	calls   int
	err     error
}

func (f *fakeAssets) Exists(ctx context.Context, entry catalog.Entry, episode int) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.present[entry.ID], nil
}

func entryWith(id int64, title string, season int) catalog.Entry {
	return catalog.Entry{ID: id, Title: title, Season: season, IDs: metadata.EmptySet()}
}

func newResolver(fetcher resolver.Fetcher, cat *fakeCatalog, assets *fakeAssets) *resolver.Resolver {
	return resolver.New(fetcher, cat, assets, logging.NewNop())
}

func idSet(mutate func(*metadata.IDSet)) metadata.IDSet {
	set := metadata.EmptySet()
	if mutate != nil {
		mutate(&set)
	}
	return set
}

func TestResolveScenarioProviderMatch(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		series: idSet(func(s *metadata.IDSet) { s.TMDB = "240411"; s.Douban = "36171155" }),
		item:   idSet(func(s *metadata.IDSet) { s.TVDB = "11217475" }),
	}
	entry := entryWith(1, "Dan Da Dan", 2)
	cat := &fakeCatalog{byProvider: map[string][]catalog.Entry{"tmdb:240411": {entry}}}
	assets := &fakeAssets{present: map[int64]bool{1: true}}

	outcome := newResolver(fetcher, cat, assets).Resolve(context.Background(), resolver.Request{
		ItemID: "i1", SeriesID: "s1", Title: "Dan Da Dan", Season: 2, Episode: 5,
	})

	if !outcome.Matched() || outcome.Entry.ID != 1 {
		t.Fatalf("expected entry 1, got %+v", outcome)
	}
	if outcome.Strategy != resolver.Strategy("tmdb") {
		t.Fatalf("expected tmdb strategy, got %q", outcome.Strategy)
	}
	if !outcome.AssetPresent {
		t.Fatal("expected asset present")
	}
	if outcome.Merged.TMDB != "240411" || outcome.Merged.Douban != "36171155" || outcome.Merged.TVDB != "11217475" {
		t.Fatalf("unexpected merged ids: %+v", outcome.Merged)
	}
}

func TestResolvePriorityInvariant(t *testing.T) {
	t.Parallel()

	// Both tmdb and tvdb have hits; the tmdb hit must win and the tvdb id
	// must never be consulted.
	fetcher := &fakeFetcher{
		series: idSet(func(s *metadata.IDSet) { s.TMDB = "1" }),
		item:   idSet(func(s *metadata.IDSet) { s.TVDB = "2" }),
	}
	cat := &fakeCatalog{byProvider: map[string][]catalog.Entry{
		"tmdb:1": {entryWith(10, "Show", 1)},
		"tvdb:2": {entryWith(20, "Show", 1)},
	}}
	assets := &fakeAssets{}

	outcome := newResolver(fetcher, cat, assets).Resolve(context.Background(), resolver.Request{
		Title: "Show", Season: 1, Episode: 1,
	})

	if outcome.Entry == nil || outcome.Entry.ID != 10 {
		t.Fatalf("expected higher-priority tmdb entry, got %+v", outcome.Entry)
	}
	for _, call := range cat.providerCalls {
		if call == "tvdb:2" {
			t.Fatal("tvdb must not be consulted after a tmdb hit")
		}
	}
}

func TestResolveWebhookFallbackIdentifiers(t *testing.T) {
	t.Parallel()

	// No media server configured: fetcher nil, webhook block rescues the id.
	entry := entryWith(3, "Show", 1)
	cat := &fakeCatalog{byProvider: map[string][]catalog.Entry{"tmdb:98765": {entry}}}
	assets := &fakeAssets{present: map[int64]bool{3: true}}

	outcome := resolver.New(nil, cat, assets, logging.NewNop()).Resolve(context.Background(), resolver.Request{
		Title: "Show", Season: 1, Episode: 2,
		ProviderIDBlock: map[string]string{"Tmdb": "98765"},
	})

	if outcome.Strategy != resolver.Strategy("tmdb") || !outcome.AssetPresent {
		t.Fatalf("expected tmdb match with asset, got %+v", outcome)
	}
}

func TestResolveSeasonTieBreak(t *testing.T) {
	t.Parallel()

	seasonOne := entryWith(1, "Show", 1)
	seasonTwo := entryWith(2, "Show", 2)
	cat := &fakeCatalog{byProvider: map[string][]catalog.Entry{"tmdb:55": {seasonOne, seasonTwo}}}
	assets := &fakeAssets{}
	fetcher := &fakeFetcher{series: idSet(func(s *metadata.IDSet) { s.TMDB = "55" })}

	outcome := newResolver(fetcher, cat, assets).Resolve(context.Background(), resolver.Request{
		Title: "Show", Season: 2, Episode: 1,
	})

	if outcome.Entry == nil || outcome.Entry.ID != 2 {
		t.Fatalf("expected season-2 entry, got %+v", outcome.Entry)
	}
}

func TestResolveAmbiguityFallsThroughToNextProvider(t *testing.T) {
	t.Parallel()

	// tmdb has two candidates with no disambiguating season; douban has a
	// clean hit and must win.
	cat := &fakeCatalog{byProvider: map[string][]catalog.Entry{
		"tmdb:7":   {entryWith(1, "Show", 1), entryWith(2, "Show", 2)},
		"douban:8": {entryWith(3, "Show", 1)},
	}}
	assets := &fakeAssets{}
	fetcher := &fakeFetcher{series: idSet(func(s *metadata.IDSet) { s.TMDB = "7"; s.Douban = "8" })}

	outcome := newResolver(fetcher, cat, assets).Resolve(context.Background(), resolver.Request{
		Title: "Other", Episode: 1, Season: metadata.SeasonUnknown,
	})

	if outcome.Entry == nil || outcome.Entry.ID != 3 {
		t.Fatalf("expected douban entry after tmdb ambiguity, got %+v", outcome.Entry)
	}
	if outcome.Strategy != resolver.Strategy("douban") {
		t.Fatalf("expected douban strategy, got %q", outcome.Strategy)
	}
}

func TestResolveTitleFallbackGating(t *testing.T) {
	t.Parallel()

	entry := entryWith(9, "胆大党 第二季", 2)
	cat := &fakeCatalog{byTitle: map[string][]catalog.Entry{"胆大党第二季": {entry}}}
	assets := &fakeAssets{}

	outcome := resolver.New(nil, cat, assets, logging.NewNop()).Resolve(context.Background(), resolver.Request{
		Title: "胆大党 第二季", Season: 2, Episode: 3,
	})

	if outcome.Entry == nil || outcome.Entry.ID != 9 {
		t.Fatalf("expected title match, got %+v", outcome)
	}
	if outcome.Strategy != resolver.StrategyTitle {
		t.Fatalf("expected title strategy, got %q", outcome.Strategy)
	}
	if outcome.TitleMatchMode != "exact" {
		t.Fatalf("expected exact match mode, got %q", outcome.TitleMatchMode)
	}
	if outcome.AssetPresent {
		t.Fatal("asset store reported absent; outcome must agree")
	}
	if assets.calls != 1 {
		t.Fatalf("expected one presence check, got %d", assets.calls)
	}
}

func TestResolveTitleFallbackNotInvokedAfterIDHit(t *testing.T) {
	t.Parallel()

	entry := entryWith(4, "Show", 1)
	cat := &fakeCatalog{
		byProvider: map[string][]catalog.Entry{"tmdb:1": {entry}},
		byTitle:    map[string][]catalog.Entry{"show": {entryWith(5, "Show", 1)}},
	}
	fetcher := &fakeFetcher{series: idSet(func(s *metadata.IDSet) { s.TMDB = "1" })}

	outcome := newResolver(fetcher, cat, &fakeAssets{}).Resolve(context.Background(), resolver.Request{
		Title: "Show", Season: 1, Episode: 1,
	})

	if outcome.Entry == nil || outcome.Entry.ID != 4 {
		t.Fatalf("expected id match, got %+v", outcome)
	}
	if len(cat.titleCalls) != 0 {
		t.Fatalf("title lookup must not run after an id hit, got %v", cat.titleCalls)
	}
}

func TestResolveTitleSeasonHardFilter(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{byTitle: map[string][]catalog.Entry{
		"show": {entryWith(1, "Show", 1), entryWith(2, "Show", 3)},
	}}

	outcome := resolver.New(nil, cat, &fakeAssets{}, logging.NewNop()).Resolve(context.Background(), resolver.Request{
		Title: "Show", Season: 2, Episode: 1,
	})

	if outcome.Matched() {
		t.Fatalf("candidates with other seasons must be excluded, got %+v", outcome.Entry)
	}
	if outcome.Strategy != resolver.StrategyUnmatched {
		t.Fatalf("expected unmatched, got %q", outcome.Strategy)
	}
}

func TestResolveUnmatchedSkipsStorageCheck(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{}
	assets := &fakeAssets{present: map[int64]bool{1: true}}

	outcome := resolver.New(nil, cat, assets, logging.NewNop()).Resolve(context.Background(), resolver.Request{
		Title: "Unknown", Season: 1, Episode: 1,
	})

	if outcome.Matched() || outcome.AssetPresent {
		t.Fatalf("expected unmatched outcome, got %+v", outcome)
	}
	if assets.calls != 0 {
		t.Fatalf("presence check must not run without a match, got %d calls", assets.calls)
	}
}

func TestResolveStorageFailureTreatedAsAbsent(t *testing.T) {
	t.Parallel()

	entry := entryWith(6, "Show", 1)
	cat := &fakeCatalog{byProvider: map[string][]catalog.Entry{"tmdb:6": {entry}}}
	assets := &fakeAssets{err: errors.New("disk offline")}
	fetcher := &fakeFetcher{item: idSet(func(s *metadata.IDSet) { s.TMDB = "6" })}

	outcome := newResolver(fetcher, cat, assets).Resolve(context.Background(), resolver.Request{
		Title: "Show", Season: 1, Episode: 1,
	})

	if !outcome.Matched() {
		t.Fatalf("expected match, got %+v", outcome)
	}
	if outcome.AssetPresent {
		t.Fatal("storage failure must degrade to not-present")
	}
}

func TestResolveCatalogErrorContinuesToNextProvider(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{providerErr: errors.New("db locked")}
	fetcher := &fakeFetcher{series: idSet(func(s *metadata.IDSet) { s.TMDB = "1"; s.Bangumi = "2" })}

	outcome := newResolver(fetcher, cat, &fakeAssets{}).Resolve(context.Background(), resolver.Request{
		Title: "Show", Season: 1, Episode: 1,
	})

	if outcome.Matched() {
		t.Fatalf("expected unmatched on catalog errors, got %+v", outcome)
	}
	if len(cat.providerCalls) != 2 {
		t.Fatalf("expected both providers attempted, got %v", cat.providerCalls)
	}
}
