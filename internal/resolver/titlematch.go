package resolver

import (
	"context"

	"log/slog"

	"danmusync/internal/catalog"
	"danmusync/internal/metadata"
	"danmusync/internal/textutil"
)

// resolveByTitle is the fallback when no identifier resolved. Titles are
// compared by normalized key; a known season is a hard filter, not a
// scoring factor. The returned mode is "exact" when the stored title equals
// the requested one verbatim, "normalized" otherwise.
func (r *Resolver) resolveByTitle(ctx context.Context, title string, season int) (*catalog.Entry, string) {
	if r.catalog == nil || title == "" {
		return nil, ""
	}
	key := textutil.TitleKey(title)
	if key == "" {
		return nil, ""
	}

	candidates, err := r.catalog.LookupTitleKey(ctx, key)
	if err != nil {
		r.logger.Warn("catalog title lookup failed",
			slog.String("title", title),
			slog.String("error", err.Error()))
		return nil, ""
	}

	if season != metadata.SeasonUnknown {
		filtered := candidates[:0:0]
		for _, candidate := range candidates {
			if candidate.Season == season {
				filtered = append(filtered, candidate)
			}
		}
		candidates = filtered
	}

	entry := selectByTitle(candidates, season)
	if entry == nil {
		if len(candidates) > 1 {
			r.logger.Warn("ambiguous title candidates, leaving unmatched",
				slog.String("title", title),
				slog.Int("candidates", len(candidates)))
		}
		return nil, ""
	}

	mode := "normalized"
	if textutil.EqualTitles(entry.Title, title) {
		mode = "exact"
	}
	r.logger.Debug("title matched",
		slog.String("title", title),
		slog.Int64("entry_id", entry.ID),
		slog.String("mode", mode))
	return entry, mode
}

// selectByTitle picks among candidates sharing the normalized title: a
// single candidate wins outright; otherwise the unique candidate with
// minimal season distance to the requested season wins; remaining ties are
// unmatched.
func selectByTitle(candidates []catalog.Entry, season int) *catalog.Entry {
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return &candidates[0]
	}
	if season == metadata.SeasonUnknown {
		return nil
	}

	best := -1
	bestDistance := 0
	unique := false
	for i := range candidates {
		distance := candidates[i].Season - season
		if distance < 0 {
			distance = -distance
		}
		switch {
		case best == -1 || distance < bestDistance:
			best, bestDistance, unique = i, distance, true
		case distance == bestDistance:
			unique = false
		}
	}
	if !unique {
		return nil
	}
	return &candidates[best]
}
