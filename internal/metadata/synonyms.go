package metadata

import "strings"

// keySynonyms maps each provider to the source-key spellings observed in
// Emby payloads, in match order. Lookup is case-insensitive; the first
// synonym present in the block wins.
var keySynonyms = []struct {
	provider Provider
	keys     []string
}{
	{ProviderTMDB, []string{"Tmdb", "TheMovieDb", "TMDB"}},
	{ProviderIMDB, []string{"Imdb", "IMDB", "IMDb"}},
	{ProviderTVDB, []string{"Tvdb", "TheTVDB", "TVDB"}},
	{ProviderDouban, []string{"DoubanID", "Douban", "douban"}},
	{ProviderBangumi, []string{"Bangumi", "bangumi", "BangumiID"}},
}

// ExtractProviderIDs pulls provider identifiers out of a raw provider-id
// block as received from Emby or a webhook payload. Unknown keys are
// ignored; empty values never match.
func ExtractProviderIDs(block map[string]string) IDSet {
	set := EmptySet()
	if len(block) == 0 {
		return set
	}

	lowered := make(map[string]string, len(block))
	for key, value := range block {
		key = strings.ToLower(strings.TrimSpace(key))
		if _, exists := lowered[key]; !exists {
			lowered[key] = strings.TrimSpace(value)
		}
	}

	for _, entry := range keySynonyms {
		for _, key := range entry.keys {
			if value := lowered[strings.ToLower(key)]; value != "" {
				set.setProvider(entry.provider, value)
				break
			}
		}
	}
	return set
}
