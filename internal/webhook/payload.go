package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Skip reasons: the notification is valid but not actionable. The handler
// acknowledges these with success so Emby does not retry.
var (
	ErrIgnoredEvent    = errors.New("ignored event type")
	ErrIgnoredItemType = errors.New("ignored item type")
	ErrIncompleteItem  = errors.New("notification missing required fields")
)

// acceptedEvents are the Emby events that trigger resolution.
var acceptedEvents = map[string]struct{}{
	"item.add":       {},
	"library.new":    {},
	"playback.start": {},
}

// Notification is one actionable media event.
type Notification struct {
	Event     string
	MediaType string // "tv_series" or "movie"
	ItemID    string
	SeriesID  string
	Title     string
	Season    int
	Episode   int
	Year      int
	// ProviderIDBlock is the raw ProviderIds map from the payload, kept
	// verbatim as the last-resort identifier source.
	ProviderIDBlock map[string]string
}

type embyPayload struct {
	Event string `json:"Event"`
	Item  struct {
		ID                string            `json:"Id"`
		Type              string            `json:"Type"`
		Name              string            `json:"Name"`
		SeriesName        string            `json:"SeriesName"`
		SeriesID          string            `json:"SeriesId"`
		ProductionYear    int               `json:"ProductionYear"`
		ParentIndexNumber *int              `json:"ParentIndexNumber"`
		IndexNumber       *int              `json:"IndexNumber"`
		ProviderIds       map[string]string `json:"ProviderIds"`
	} `json:"Item"`
}

// Parse decodes an Emby webhook body into a Notification. A nil error means
// the notification is actionable; ErrIgnoredEvent, ErrIgnoredItemType, and
// ErrIncompleteItem mark payloads to acknowledge and drop.
func Parse(body []byte) (Notification, error) {
	var payload embyPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Notification{}, fmt.Errorf("decode webhook payload: %w", err)
	}

	if _, ok := acceptedEvents[payload.Event]; !ok {
		return Notification{}, fmt.Errorf("%w: %q", ErrIgnoredEvent, payload.Event)
	}

	item := payload.Item
	notification := Notification{
		Event:           payload.Event,
		ItemID:          strings.TrimSpace(item.ID),
		Year:            item.ProductionYear,
		ProviderIDBlock: item.ProviderIds,
	}

	switch item.Type {
	case "Episode":
		if item.SeriesName == "" || item.ParentIndexNumber == nil || item.IndexNumber == nil {
			return Notification{}, fmt.Errorf("%w: episode needs series name, season, and episode", ErrIncompleteItem)
		}
		notification.MediaType = "tv_series"
		notification.Title = item.SeriesName
		notification.SeriesID = strings.TrimSpace(item.SeriesID)
		notification.Season = *item.ParentIndexNumber
		notification.Episode = *item.IndexNumber
	case "Movie":
		if item.Name == "" {
			return Notification{}, fmt.Errorf("%w: movie needs a title", ErrIncompleteItem)
		}
		// Movies resolve as a single-episode season.
		notification.MediaType = "movie"
		notification.Title = item.Name
		notification.Season = 1
		notification.Episode = 1
	default:
		return Notification{}, fmt.Errorf("%w: %q", ErrIgnoredItemType, item.Type)
	}

	return notification, nil
}

// Skippable reports whether the parse error marks a payload that should be
// acknowledged rather than rejected.
func Skippable(err error) bool {
	return errors.Is(err, ErrIgnoredEvent) || errors.Is(err, ErrIgnoredItemType) || errors.Is(err, ErrIncompleteItem)
}
