package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"autoqueue/internal/config"
	"autoqueue/internal/daemon"
	"autoqueue/internal/logging"
	"autoqueue/internal/similarity"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := similarity.OpenStore(cfg.DatabasePath(), logger)
	if err != nil {
		logger.Error("open similarity store", logging.Error(err))
		return
	}

	service := similarity.NewService(store, buildAnalyzer(cfg), buildSource(cfg, logger), cfg, logger)

	d, err := daemon.New(cfg, service, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = service.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("autoqueued shutting down")
}
