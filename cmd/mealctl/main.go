package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wuyiadepoju/meal-subscriptions/internal/app"
	"github.com/wuyiadepoju/meal-subscriptions/internal/cli"
	"github.com/wuyiadepoju/meal-subscriptions/pkg/config"
	"github.com/wuyiadepoju/meal-subscriptions/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	cli.SetLogger(log)

	container, err := app.NewContainer(ctx, cfg, log)
	if err != nil {
		// Commands that need storage report errNoApp themselves.
		log.Warn("failed to initialize container", zap.Error(err))
	} else {
		defer container.Close()
		cli.SetApp(cli.NewApp(container))
	}

	cli.ExecuteContext(ctx)
}
