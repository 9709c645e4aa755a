package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/migrations"
	"github.com/wuyiadepoju/meal-subscriptions/pkg/config"
	"github.com/wuyiadepoju/meal-subscriptions/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	var (
		projectID  = flag.String("project", cfg.SpannerProject, "Spanner project ID")
		instanceID = flag.String("instance", cfg.SpannerInstance, "Spanner instance ID")
		databaseID = flag.String("database", cfg.SpannerDatabase, "Spanner database ID")
		dir        = flag.String("dir", "", "Migrations directory (default: <module root>/migrations)")
		timeout    = flag.Duration("timeout", 5*time.Minute, "Timeout for migration operations")
	)
	flag.Parse()

	log := logger.Must(cfg.LogLevel, cfg.AppEnv)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	target := migrations.Target{
		ProjectID:    *projectID,
		InstanceID:   *instanceID,
		DatabaseID:   *databaseID,
		EmulatorHost: cfg.SpannerEmulatorHost,
		Dir:          *dir,
	}
	if err := migrations.RunMigrations(ctx, target, log); err != nil {
		log.Error("migration failed", zap.Error(err))
		os.Exit(1)
	}
}
