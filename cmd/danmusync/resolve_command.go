package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"danmusync/internal/assets"
	"danmusync/internal/catalog"
	"danmusync/internal/logging"
	"danmusync/internal/metadata"
	"danmusync/internal/queue"
	"danmusync/internal/resolver"
	"danmusync/internal/services/emby"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var (
		itemID      string
		seriesID    string
		title       string
		season      int
		episode     int
		providerIDs []string
		enqueue     bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Run a one-shot resolution against the catalog",
		Long: `Resolve a title against the danmaku catalog exactly as a webhook
notification would, without going through the HTTP server. Useful for
checking why an episode did or did not produce a search task.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" && strings.TrimSpace(itemID) == "" {
				return fmt.Errorf("either --title or --item-id is required")
			}

			block, err := parseProviderIDs(providerIDs)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			catalogStore, err := catalog.Open(cfg.CatalogDBPath())
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer catalogStore.Close()

			var fetcher resolver.Fetcher
			embyClient := emby.NewClient(cfg.Emby, logger)
			if embyClient.Enabled() {
				fetcher = embyClient
			}

			assetStore := assets.NewStore(catalogStore, cfg.Paths.DanmakuDir)
			res := resolver.New(fetcher, catalogStore, assetStore, logger)

			outcome := res.Resolve(cmd.Context(), resolver.Request{
				ItemID:          strings.TrimSpace(itemID),
				SeriesID:        strings.TrimSpace(seriesID),
				Title:           strings.TrimSpace(title),
				Season:          season,
				Episode:         episode,
				ProviderIDBlock: block,
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Merged identifiers: %s\n", outcome.Merged.Summary())
			fmt.Fprintf(out, "Matched:            %s\n", yesNo(outcome.Matched()))
			if outcome.Matched() {
				fmt.Fprintf(out, "Strategy:           %s\n", outcome.Strategy)
				if outcome.TitleMatchMode != "" {
					fmt.Fprintf(out, "Title match:        %s\n", outcome.TitleMatchMode)
				}
				fmt.Fprintf(out, "Catalog entry:      #%d %s (season %d)\n",
					outcome.Entry.ID, outcome.Entry.Title, outcome.Entry.Season)
				fmt.Fprintf(out, "Danmaku present:    %s\n", yesNo(outcome.AssetPresent))
			}

			if !enqueue || outcome.AssetPresent {
				return nil
			}

			store, err := queue.Open(cfg.QueueDBPath())
			if err != nil {
				return fmt.Errorf("open queue: %w", err)
			}
			defer store.Close()

			task := queue.SearchTask{
				Title:   outcome.Merged.Title,
				Season:  outcome.Merged.Season,
				Episode: outcome.Merged.Episode,
				IDs:     outcome.Merged,
			}
			queued, created, err := store.Enqueue(cmd.Context(), task)
			if err != nil {
				return fmt.Errorf("enqueue search task: %w", err)
			}
			if created {
				fmt.Fprintf(out, "Enqueued search task %s\n", queued.ID)
			} else {
				fmt.Fprintf(out, "Search task already queued as %s\n", queued.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&itemID, "item-id", "", "Emby item id to fetch metadata for")
	cmd.Flags().StringVar(&seriesID, "series-id", "", "Emby series id to fetch metadata for")
	cmd.Flags().StringVar(&title, "title", "", "Series or movie title")
	cmd.Flags().IntVar(&season, "season", metadata.SeasonUnknown, "Season number (omit when unknown)")
	cmd.Flags().IntVar(&episode, "episode", 1, "Episode number")
	cmd.Flags().StringArrayVar(&providerIDs, "provider-id", nil, "Provider id as key=value, repeatable (e.g. Tmdb=240411)")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Enqueue a search task when no danmaku asset is present")
	return cmd
}

func parseProviderIDs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	block := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !found || key == "" || value == "" {
			return nil, fmt.Errorf("invalid provider id %q, expected key=value", pair)
		}
		block[key] = value
	}
	return block, nil
}
