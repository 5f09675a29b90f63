package emby

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"context"
	"log/slog"

	"danmusync/internal/config"
	"danmusync/internal/logging"
	"danmusync/internal/metadata"
)

// FailureKind classifies why a fetch produced no identifiers.
type FailureKind string

const (
	FailureConfigMissing FailureKind = "config_missing"
	FailureNetwork       FailureKind = "network"
	FailureAuth          FailureKind = "auth"
	FailureNotFound      FailureKind = "not_found"
	FailureParse         FailureKind = "parse"
)

// Failure records a fetch failure for logging. It is data, not a Go error:
// the pipeline proceeds with the empty set either way.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) String() string {
	if f == nil {
		return ""
	}
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

// HTTPDoer describes the HTTP client used by the Emby service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches item metadata from an Emby server. Connections are pooled
// via the underlying transport and reused across requests.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  HTTPDoer
	logger  *slog.Logger

	mu     sync.Mutex
	userID string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPDoer overrides the default HTTP client.
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// NewClient builds an Emby client from configuration. A client with an empty
// URL is valid but disabled: every fetch reports FailureConfigMissing.
func NewClient(cfg config.Emby, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		timeout: timeout,
		client:  &http.Client{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Enabled reports whether the client has a server to talk to.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// FetchItem retrieves the provider identifiers for one Emby item. The
// returned set is empty whenever a failure is reported.
func (c *Client) FetchItem(ctx context.Context, itemID string) (metadata.IDSet, *Failure) {
	if !c.Enabled() {
		return metadata.EmptySet(), &Failure{Kind: FailureConfigMissing}
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return metadata.EmptySet(), &Failure{Kind: FailureNotFound}
	}

	userID, fail := c.resolveUserID(ctx)
	if fail != nil {
		return metadata.EmptySet(), fail
	}

	var payload struct {
		Name        string            `json:"Name"`
		ProviderIds map[string]string `json:"ProviderIds"`
	}
	if fail := c.getJSON(ctx, fmt.Sprintf("Users/%s/Items/%s", userID, url.PathEscape(itemID)), &payload); fail != nil {
		return metadata.EmptySet(), fail
	}

	set := metadata.ExtractProviderIDs(payload.ProviderIds)
	set.Title = strings.TrimSpace(payload.Name)
	return set, nil
}

// FetchBoth retrieves series-level and item-level identifier sets. The two
// fetches run concurrently when a series id is present; each is bounded by
// the configured per-call timeout. Failures are logged and degrade to empty
// sets so the caller always receives usable values.
func (c *Client) FetchBoth(ctx context.Context, itemID, seriesID string) (metadata.IDSet, metadata.IDSet) {
	seriesSet := metadata.EmptySet()
	itemSet := metadata.EmptySet()

	var wg sync.WaitGroup
	if strings.TrimSpace(seriesID) != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var fail *Failure
			seriesSet, fail = c.FetchItem(ctx, seriesID)
			c.logFetch(ctx, "series", seriesID, seriesSet, fail)
		}()
	}

	var itemFail *Failure
	itemSet, itemFail = c.FetchItem(ctx, itemID)
	c.logFetch(ctx, "item", itemID, itemSet, itemFail)
	wg.Wait()

	return seriesSet, itemSet
}

func (c *Client) logFetch(ctx context.Context, scope, id string, set metadata.IDSet, fail *Failure) {
	if fail != nil {
		level := slog.LevelWarn
		if fail.Kind == FailureConfigMissing {
			level = slog.LevelDebug
		}
		c.logger.Log(ctx, level, "emby metadata fetch failed",
			slog.String("scope", scope),
			slog.String("id", id),
			slog.String("reason", fail.String()))
		return
	}
	c.logger.Debug("emby metadata fetched",
		slog.String("scope", scope),
		slog.String("id", id),
		slog.String("ids", set.Summary()))
}

// resolveUserID returns a cached Emby user id, preferring an administrator
// account and falling back to the first listed user.
func (c *Client) resolveUserID(ctx context.Context) (string, *Failure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID != "" {
		return c.userID, nil
	}

	var users []struct {
		ID     string `json:"Id"`
		Name   string `json:"Name"`
		Policy struct {
			IsAdministrator bool `json:"IsAdministrator"`
		} `json:"Policy"`
	}
	if fail := c.getJSON(ctx, "Users", &users); fail != nil {
		return "", fail
	}
	if len(users) == 0 {
		return "", &Failure{Kind: FailureNotFound, Err: fmt.Errorf("emby returned no users")}
	}

	chosen := users[0]
	for _, user := range users {
		if user.Policy.IsAdministrator {
			chosen = user
			break
		}
	}
	c.userID = chosen.ID
	c.logger.Debug("emby user resolved", slog.String("user", chosen.Name), slog.String("user_id", chosen.ID))
	return c.userID, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) *Failure {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestURL := fmt.Sprintf("%s/emby/%s", c.baseURL, endpoint)
	if c.apiKey != "" {
		separator := "?"
		if strings.Contains(requestURL, "?") {
			separator = "&"
		}
		requestURL += separator + "api_key=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return &Failure{Kind: FailureNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &Failure{Kind: FailureNetwork, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &Failure{Kind: FailureAuth, Err: fmt.Errorf("emby returned %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusNotFound:
		return &Failure{Kind: FailureNotFound, Err: fmt.Errorf("emby returned 404")}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &Failure{Kind: FailureNetwork, Err: fmt.Errorf("emby returned %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Failure{Kind: FailureParse, Err: err}
	}
	return nil
}
