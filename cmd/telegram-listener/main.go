package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/codex-k8s/telegram-listener/internal/config"
	"github.com/codex-k8s/telegram-listener/internal/i18n"
	"github.com/codex-k8s/telegram-listener/internal/log"
	"github.com/codex-k8s/telegram-listener/internal/telegram"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "dotenv error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(cfg.LogLevel, cfg.LogFormat).With("service", cfg.ServiceName)
	bundle, err := i18n.Load(cfg.Lang)
	if err != nil {
		logger.Error("failed to load i18n", "error", err)
		os.Exit(1)
	}

	service, err := telegram.New(cfg, bundle, logger)
	if err != nil {
		logger.Error("failed to init telegram service", "error", err)
		os.Exit(1)
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := service.Start(baseCtx); err != nil {
		logger.Error("failed to start telegram updates", "error", err)
		os.Exit(1)
	}
	logger.Info("telegram updates started", "webhook", service.Webhook())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	sig := <-sigCh
	logger.Info("shutdown requested", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := service.Stop(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	cancel()
}
