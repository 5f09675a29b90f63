package resolver

import (
	"context"

	"log/slog"

	"danmusync/internal/catalog"
	"danmusync/internal/metadata"
)

// resolveByID walks providers in fixed priority order and returns the first
// catalog hit. Lower-priority identifiers are never consulted after a hit.
func (r *Resolver) resolveByID(ctx context.Context, merged metadata.IDSet) (*catalog.Entry, Strategy) {
	if r.catalog == nil {
		return nil, StrategyUnmatched
	}
	for _, provider := range metadata.ProviderPriority() {
		id := merged.Provider(provider)
		if id == "" {
			continue
		}
		candidates, err := r.catalog.LookupProvider(ctx, provider, id)
		if err != nil {
			r.logger.Warn("catalog lookup failed",
				slog.String("provider", string(provider)),
				slog.String("id", id),
				slog.String("error", err.Error()))
			continue
		}
		entry := pickCandidate(candidates, merged.Season)
		if entry == nil {
			if len(candidates) > 1 {
				r.logger.Warn("ambiguous catalog candidates, skipping provider",
					slog.String("provider", string(provider)),
					slog.String("id", id),
					slog.Int("candidates", len(candidates)))
			}
			continue
		}
		r.logger.Debug("identifier matched",
			slog.String("provider", string(provider)),
			slog.String("id", id),
			slog.Int64("entry_id", entry.ID))
		return entry, ProviderStrategy(provider)
	}
	return nil, StrategyUnmatched
}

// pickCandidate applies the tie-break policy: prefer the candidate whose
// season equals the requested one; with no season-specific candidate a
// single remaining candidate wins; anything still ambiguous is a miss.
func pickCandidate(candidates []catalog.Entry, season int) *catalog.Entry {
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return &candidates[0]
	}

	if season != metadata.SeasonUnknown {
		var match *catalog.Entry
		for i := range candidates {
			if candidates[i].Season != season {
				continue
			}
			if match != nil {
				return nil
			}
			match = &candidates[i]
		}
		if match != nil {
			return match
		}
	}
	return nil
}
