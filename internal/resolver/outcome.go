package resolver

import (
	"danmusync/internal/catalog"
	"danmusync/internal/metadata"
)

// Strategy names the method that produced a match.
type Strategy string

const (
	StrategyTitle     Strategy = "title"
	StrategyUnmatched Strategy = "unmatched"
)

// ProviderStrategy converts a provider tag into its strategy name.
func ProviderStrategy(p metadata.Provider) Strategy {
	return Strategy(p)
}

// Request is one inbound resolution request, supplied by the webhook layer.
type Request struct {
	ItemID   string
	SeriesID string
	Title    string
	Season   int // metadata.SeasonUnknown when the notification carried none
	Episode  int
	// ProviderIDBlock is the raw provider-id map embedded in the
	// notification, used only as a last-resort identifier source.
	ProviderIDBlock map[string]string
}

// Outcome is the final resolution result consumed by the dispatcher.
type Outcome struct {
	// Entry is the matched catalog entry, nil when unmatched.
	Entry *catalog.Entry
	// Strategy records which method matched, or "unmatched".
	Strategy Strategy
	// AssetPresent is true only when an entry matched and its danmaku file
	// is physically present.
	AssetPresent bool
	// Merged carries the combined identifier set; the dispatcher attaches
	// it to search tasks.
	Merged metadata.IDSet
	// TitleMatchMode records how the title fallback matched ("exact" or
	// "normalized"), empty for other strategies.
	TitleMatchMode string
}

// Matched reports whether any strategy produced a catalog entry.
func (o Outcome) Matched() bool {
	return o.Entry != nil
}
