package metadata

import (
	"fmt"
	"strings"
)

// Provider identifies an external metadata database.
type Provider string

const (
	ProviderTMDB    Provider = "tmdb"
	ProviderDouban  Provider = "douban"
	ProviderIMDB    Provider = "imdb"
	ProviderTVDB    Provider = "tvdb"
	ProviderBangumi Provider = "bangumi"
)

// providerPriority is the fixed resolution order. It is not configurable.
var providerPriority = []Provider{
	ProviderTMDB,
	ProviderDouban,
	ProviderIMDB,
	ProviderTVDB,
	ProviderBangumi,
}

// ProviderPriority returns the provider resolution order, highest first.
func ProviderPriority() []Provider {
	out := make([]Provider, len(providerPriority))
	copy(out, providerPriority)
	return out
}

// SeasonUnknown marks an IDSet without season information. Season zero is a
// real season (specials), so absence needs its own value.
const SeasonUnknown = -1

// IDSet is the identifier record for one media item. Construct with
// EmptySet so the season sentinel is initialized.
type IDSet struct {
	TMDB    string
	Douban  string
	IMDB    string
	TVDB    string
	Bangumi string

	Title   string
	Season  int
	Episode int
}

// EmptySet returns an IDSet with no identifiers and an unknown season.
func EmptySet() IDSet {
	return IDSet{Season: SeasonUnknown}
}

// Provider returns the identifier stored for the given provider.
func (s IDSet) Provider(p Provider) string {
	switch p {
	case ProviderTMDB:
		return s.TMDB
	case ProviderDouban:
		return s.Douban
	case ProviderIMDB:
		return s.IMDB
	case ProviderTVDB:
		return s.TVDB
	case ProviderBangumi:
		return s.Bangumi
	default:
		return ""
	}
}

func (s *IDSet) setProvider(p Provider, value string) {
	switch p {
	case ProviderTMDB:
		s.TMDB = value
	case ProviderDouban:
		s.Douban = value
	case ProviderIMDB:
		s.IMDB = value
	case ProviderTVDB:
		s.TVDB = value
	case ProviderBangumi:
		s.Bangumi = value
	}
}

// HasProviderIDs reports whether any provider identifier is populated.
func (s IDSet) HasProviderIDs() bool {
	for _, p := range providerPriority {
		if s.Provider(p) != "" {
			return true
		}
	}
	return false
}

// HasSeason reports whether the set carries season information.
func (s IDSet) HasSeason() bool {
	return s.Season != SeasonUnknown
}

// Summary renders the populated identifiers for logging, e.g.
// "tmdb:240411, tvdb:11217475". Returns "none" when empty.
func (s IDSet) Summary() string {
	parts := make([]string, 0, len(providerPriority))
	for _, p := range providerPriority {
		if id := s.Provider(p); id != "" {
			parts = append(parts, fmt.Sprintf("%s:%s", p, id))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
