package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"resumescreener/internal/cli"
	"resumescreener/internal/config"
	"resumescreener/internal/errors"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "screener: configuration error:", err)
		return 2
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "screener: invalid log level:", err)
		return 2
	}
	logger.Debug("Starting screener",
		"version", cli.Version,
		"ai_provider", cfg.AI.Provider,
		"model", cfg.AI.Model)

	if err := cli.Execute(ctx, cfg, logger); err != nil {
		logger.LogError(err, "Command failed")
		return 1
	}
	return 0
}
