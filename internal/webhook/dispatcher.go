package webhook

import (
	"context"
	"fmt"

	"log/slog"

	"danmusync/internal/logging"
	"danmusync/internal/notifications"
	"danmusync/internal/queue"
	"danmusync/internal/resolver"
)

// TaskQueue is the search task store surface the dispatcher needs.
type TaskQueue interface {
	Enqueue(ctx context.Context, task queue.SearchTask) (queue.SearchTask, bool, error)
}

// Dispatcher turns notifications into resolution outcomes and, when no
// asset is present, queued search tasks.
type Dispatcher struct {
	resolver *resolver.Resolver
	tasks    TaskQueue
	notifier notifications.Service
	logger   *slog.Logger
}

// NewDispatcher wires the resolution pipeline to the task queue.
func NewDispatcher(res *resolver.Resolver, tasks TaskQueue, notifier notifications.Service, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	return &Dispatcher{resolver: res, tasks: tasks, notifier: notifier, logger: logger}
}

// Dispatch resolves one notification. The outcome is always returned; the
// enqueue error is surfaced for logging but the webhook response does not
// depend on it.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) (resolver.Outcome, error) {
	outcome := d.resolver.Resolve(ctx, resolver.Request{
		ItemID:          n.ItemID,
		SeriesID:        n.SeriesID,
		Title:           n.Title,
		Season:          n.Season,
		Episode:         n.Episode,
		ProviderIDBlock: n.ProviderIDBlock,
	})

	if outcome.AssetPresent {
		d.logger.Info("danmaku already present, skipping search",
			slog.String("title", n.Title),
			slog.Int("season", n.Season),
			slog.Int("episode", n.Episode),
			slog.String("strategy", string(outcome.Strategy)))
		return outcome, nil
	}

	task := queue.SearchTask{
		Title:     n.Title,
		MediaType: n.MediaType,
		Season:    n.Season,
		Episode:   n.Episode,
		Year:      n.Year,
		IDs:       outcome.Merged,
	}
	queued, created, err := d.tasks.Enqueue(ctx, task)
	if err != nil {
		d.notifier.NotifyError(ctx, err, "enqueue search task")
		return outcome, fmt.Errorf("enqueue search task: %w", err)
	}
	if !created {
		d.logger.Info("search task already queued",
			slog.String("title", n.Title),
			slog.String("task_id", queued.ID))
		return outcome, nil
	}

	d.logger.Info("search task enqueued",
		slog.String("title", n.Title),
		slog.Int("season", n.Season),
		slog.Int("episode", n.Episode),
		slog.String("task_id", queued.ID),
		slog.String("ids", queued.IDs.Summary()))
	d.notifier.NotifySearchEnqueued(ctx, queued)
	return outcome, nil
}
