package metadata

// Merge combines series-level, item-level, and webhook-embedded identifier
// sets into one record.
//
// Field precedence: the series set wins tmdb/douban/imdb (series records
// carry the canonical show ids), the item set wins tvdb (episode-scoped ids
// live on the item) and title/season/episode. The webhook set is a last
// resort: its identifiers are substituted only when every provider field is
// still empty after the first two sources, and it never overrides a value
// those sources produced.
func Merge(series, item, webhook IDSet) IDSet {
	merged := EmptySet()

	merged.TMDB = firstNonEmpty(series.TMDB, item.TMDB)
	merged.Douban = firstNonEmpty(series.Douban, item.Douban)
	merged.IMDB = firstNonEmpty(series.IMDB, item.IMDB)
	merged.TVDB = firstNonEmpty(item.TVDB, series.TVDB)
	merged.Bangumi = firstNonEmpty(series.Bangumi, item.Bangumi)

	merged.Title = firstNonEmpty(item.Title, series.Title)
	merged.Season = item.Season
	if !item.HasSeason() {
		merged.Season = series.Season
	}
	merged.Episode = item.Episode
	if merged.Episode == 0 {
		merged.Episode = series.Episode
	}

	if !merged.HasProviderIDs() {
		for _, p := range providerPriority {
			merged.setProvider(p, webhook.Provider(p))
		}
	}
	return merged
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
