package resolver

import (
	"context"

	"log/slog"

	"danmusync/internal/catalog"
	"danmusync/internal/logging"
	"danmusync/internal/metadata"
)

// Fetcher retrieves identifier sets from the media server. Failures degrade
// to empty sets inside the implementation.
type Fetcher interface {
	FetchBoth(ctx context.Context, itemID, seriesID string) (series, item metadata.IDSet)
}

// Catalog is the read-only lookup surface of the danmaku catalog.
type Catalog interface {
	LookupProvider(ctx context.Context, provider metadata.Provider, id string) ([]catalog.Entry, error)
	LookupTitleKey(ctx context.Context, key string) ([]catalog.Entry, error)
}

// AssetStore checks physical presence of a danmaku asset.
type AssetStore interface {
	Exists(ctx context.Context, entry catalog.Entry, episode int) (bool, error)
}

// Resolver runs the resolution pipeline. Safe for concurrent use; all
// per-request state lives on the stack.
type Resolver struct {
	fetcher Fetcher
	catalog Catalog
	assets  AssetStore
	logger  *slog.Logger
}

// New constructs a Resolver. The fetcher may be nil when no media server is
// configured; resolution then starts from webhook-embedded identifiers.
func New(fetcher Fetcher, cat Catalog, assets AssetStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{fetcher: fetcher, catalog: cat, assets: assets, logger: logger}
}

// Resolve runs the full pipeline for one notification and always returns a
// concrete outcome.
func (r *Resolver) Resolve(ctx context.Context, req Request) Outcome {
	seriesSet := metadata.EmptySet()
	itemSet := metadata.EmptySet()
	if r.fetcher != nil {
		seriesSet, itemSet = r.fetcher.FetchBoth(ctx, req.ItemID, req.SeriesID)
	}

	webhookSet := metadata.ExtractProviderIDs(req.ProviderIDBlock)
	merged := metadata.Merge(seriesSet, itemSet, webhookSet)

	// The notification itself is authoritative for title/season/episode;
	// fetched values only fill gaps.
	if req.Title != "" {
		merged.Title = req.Title
	}
	if req.Season != metadata.SeasonUnknown {
		merged.Season = req.Season
	}
	if req.Episode != 0 {
		merged.Episode = req.Episode
	}

	r.logger.Debug("metadata merged",
		slog.String("title", merged.Title),
		slog.Int("season", merged.Season),
		slog.Int("episode", merged.Episode),
		slog.String("ids", merged.Summary()))

	outcome := Outcome{Strategy: StrategyUnmatched, Merged: merged}

	entry, strategy := r.resolveByID(ctx, merged)
	if entry == nil {
		var mode string
		entry, mode = r.resolveByTitle(ctx, merged.Title, merged.Season)
		if entry != nil {
			strategy = StrategyTitle
			outcome.TitleMatchMode = mode
		}
	}

	if entry == nil {
		r.logger.Info("resolution unmatched",
			slog.String("title", merged.Title),
			slog.String("ids", merged.Summary()))
		return outcome
	}

	outcome.Entry = entry
	outcome.Strategy = strategy
	outcome.AssetPresent = r.assetPresent(ctx, *entry, merged.Episode)

	r.logger.Info("resolution complete",
		slog.String("title", merged.Title),
		slog.String("strategy", string(strategy)),
		slog.Int64("entry_id", entry.ID),
		slog.Bool("asset_present", outcome.AssetPresent))
	return outcome
}

// assetPresent runs the existence decision. A check that cannot be
// completed counts as absent so a search task still fires.
func (r *Resolver) assetPresent(ctx context.Context, entry catalog.Entry, episode int) bool {
	if r.assets == nil {
		return false
	}
	present, err := r.assets.Exists(ctx, entry, episode)
	if err != nil {
		r.logger.Warn("danmaku presence check failed, treating as absent",
			slog.Int64("entry_id", entry.ID),
			slog.Int("episode", episode),
			slog.String("error", err.Error()))
		return false
	}
	return present
}
