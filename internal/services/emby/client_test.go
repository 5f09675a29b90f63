package emby_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"danmusync/internal/config"
	"danmusync/internal/logging"
	"danmusync/internal/services/emby"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func embyHandler(t *testing.T, items map[string]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/emby/Users":
			w.Write([]byte(`[
				{"Id": "u2", "Name": "guest", "Policy": {"IsAdministrator": false}},
				{"Id": "u1", "Name": "admin", "Policy": {"IsAdministrator": true}}
			]`))
		default:
			for id, body := range items {
				if r.URL.Path == "/emby/Users/u1/Items/"+id {
					w.Write([]byte(body))
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newClient(t *testing.T, serverURL string) *emby.Client {
	t.Helper()
	return emby.NewClient(config.Emby{URL: serverURL, APIKey: "secret", TimeoutSeconds: 5}, logging.NewNop())
}

func TestFetchItemExtractsProviderIDs(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, embyHandler(t, map[string]string{
		"42": `{"Name": "Dan Da Dan", "ProviderIds": {"Tmdb": "240411", "DoubanID": "36171155", "IMDB": "tt0123"}}`,
	}))
	client := newClient(t, server.URL)

	set, fail := client.FetchItem(context.Background(), "42")
	if fail != nil {
		t.Fatalf("unexpected failure: %v", fail)
	}
	if set.TMDB != "240411" || set.Douban != "36171155" || set.IMDB != "tt0123" {
		t.Fatalf("unexpected set: %+v", set)
	}
	if set.Title != "Dan Da Dan" {
		t.Fatalf("expected title from payload, got %q", set.Title)
	}
}

func TestFetchItemPrefersAdminUser(t *testing.T) {
	t.Parallel()

	var itemPath atomic.Value
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/emby/Users" {
			w.Write([]byte(`[
				{"Id": "first", "Policy": {"IsAdministrator": false}},
				{"Id": "admin", "Policy": {"IsAdministrator": true}}
			]`))
			return
		}
		itemPath.Store(r.URL.Path)
		w.Write([]byte(`{"ProviderIds": {}}`))
	})
	client := newClient(t, server.URL)

	if _, fail := client.FetchItem(context.Background(), "9"); fail != nil {
		t.Fatalf("unexpected failure: %v", fail)
	}
	if got := itemPath.Load(); got != "/emby/Users/admin/Items/9" {
		t.Fatalf("expected admin-scoped item path, got %v", got)
	}
}

func TestFetchItemFailureKinds(t *testing.T) {
	t.Parallel()

	t.Run("config missing", func(t *testing.T) {
		t.Parallel()
		client := emby.NewClient(config.Emby{TimeoutSeconds: 5}, logging.NewNop())
		set, fail := client.FetchItem(context.Background(), "1")
		if fail == nil || fail.Kind != emby.FailureConfigMissing {
			t.Fatalf("expected config_missing, got %v", fail)
		}
		if set.HasProviderIDs() {
			t.Fatalf("expected empty set, got %+v", set)
		}
	})

	t.Run("auth", func(t *testing.T) {
		t.Parallel()
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
		client := newClient(t, server.URL)
		if _, fail := client.FetchItem(context.Background(), "1"); fail == nil || fail.Kind != emby.FailureAuth {
			t.Fatalf("expected auth failure, got %v", fail)
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		server := newTestServer(t, embyHandler(t, nil))
		client := newClient(t, server.URL)
		if _, fail := client.FetchItem(context.Background(), "missing"); fail == nil || fail.Kind != emby.FailureNotFound {
			t.Fatalf("expected not_found failure, got %v", fail)
		}
	})

	t.Run("parse", func(t *testing.T) {
		t.Parallel()
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		})
		client := newClient(t, server.URL)
		if _, fail := client.FetchItem(context.Background(), "1"); fail == nil || fail.Kind != emby.FailureParse {
			t.Fatalf("expected parse failure, got %v", fail)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
		})
		client := emby.NewClient(config.Emby{URL: server.URL, APIKey: "secret", TimeoutSeconds: 1}, logging.NewNop())
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if _, fail := client.FetchItem(ctx, "1"); fail == nil || fail.Kind != emby.FailureNetwork {
			t.Fatalf("expected network failure on timeout, got %v", fail)
		}
	})
}

func TestFetchBothReturnsBothSets(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, embyHandler(t, map[string]string{
		"series-1": `{"Name": "Show", "ProviderIds": {"Tmdb": "240411"}}`,
		"item-1":   `{"Name": "Show - 5", "ProviderIds": {"Tvdb": "11217475"}}`,
	}))
	client := newClient(t, server.URL)

	seriesSet, itemSet := client.FetchBoth(context.Background(), "item-1", "series-1")
	if seriesSet.TMDB != "240411" {
		t.Fatalf("unexpected series set: %+v", seriesSet)
	}
	if itemSet.TVDB != "11217475" {
		t.Fatalf("unexpected item set: %+v", itemSet)
	}
}

func TestFetchBothDegradesToEmptySets(t *testing.T) {
	t.Parallel()

	client := emby.NewClient(config.Emby{TimeoutSeconds: 5}, logging.NewNop())
	seriesSet, itemSet := client.FetchBoth(context.Background(), "item", "series")
	if seriesSet.HasProviderIDs() || itemSet.HasProviderIDs() {
		t.Fatalf("expected empty sets, got %+v / %+v", seriesSet, itemSet)
	}
}
