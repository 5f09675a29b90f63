package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"danmusync/internal/assets"
	"danmusync/internal/catalog"
	"danmusync/internal/config"
	"danmusync/internal/logging"
	"danmusync/internal/notifications"
	"danmusync/internal/queue"
	"danmusync/internal/resolver"
	"danmusync/internal/services/emby"
	"danmusync/internal/webhook"
)

// Daemon owns the long-running webhook service and enforces single-instance
// execution through a lock file.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog *catalog.Store
	queue   *queue.Store
	server  *webhook.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New opens the stores and assembles the resolution pipeline.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires a config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare directories: %w", err)
	}

	catalogStore, err := catalog.Open(cfg.CatalogDBPath())
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	queueStore, err := queue.Open(cfg.QueueDBPath())
	if err != nil {
		_ = catalogStore.Close()
		return nil, fmt.Errorf("open queue: %w", err)
	}

	var fetcher resolver.Fetcher
	embyClient := emby.NewClient(cfg.Emby, logger)
	if embyClient.Enabled() {
		fetcher = embyClient
	} else {
		logger.Warn("emby server not configured, resolving from webhook identifiers only")
	}

	assetStore := assets.NewStore(catalogStore, cfg.Paths.DanmakuDir)
	res := resolver.New(fetcher, catalogStore, assetStore, logger)
	notifier := notifications.NewService(cfg)
	dispatcher := webhook.NewDispatcher(res, queueStore, notifier, logger)
	server := webhook.NewServer(cfg.Webhook.Bind, cfg.Webhook.Token, dispatcher, logger)

	lockPath := cfg.LockFilePath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		catalog:  catalogStore,
		queue:    queueStore,
		server:   server,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the webhook server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another danmusync daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.server.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("danmusync daemon started",
		slog.String("bind", d.cfg.Webhook.Bind),
		slog.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the webhook server and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", slog.String("error", err.Error()))
	}
	d.running.Store(false)
	d.logger.Info("danmusync daemon stopped")
}

// Close stops the daemon and closes the underlying stores.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.queue != nil {
		errs = append(errs, d.queue.Close())
	}
	if d.catalog != nil {
		errs = append(errs, d.catalog.Close())
	}
	return errors.Join(errs...)
}

// Queue exposes the task store for inspection commands.
func (d *Daemon) Queue() *queue.Store {
	return d.queue
}
