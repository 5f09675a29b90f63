package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"log/slog"

	"danmusync/internal/config"
	"danmusync/internal/daemon"
	"danmusync/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		logger.Error("create daemon", slog.String("error", err.Error()))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", slog.String("error", err.Error()))
		return
	}

	<-ctx.Done()
	logger.Info("danmusyncd shutting down")
}
