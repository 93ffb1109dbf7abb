// Command sweeper deletes expired cache entries from a configured
// database, either once or on a cron schedule. It exists for deployments
// whose caches see long idle periods, where the in-process lazy sweep
// would leave expired rows in place until the next operation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/charlesng35/sqlcache"
	"github.com/charlesng35/sqlcache/config"
	"github.com/charlesng35/sqlcache/database"
	"github.com/charlesng35/sqlcache/gormstore"
	"github.com/charlesng35/sqlcache/maintenance"
	"github.com/charlesng35/sqlcache/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sqlcache-sweeper", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	var once bool
	fs.StringVar(&configPath, "config", "", "Path to configuration directory")
	fs.BoolVar(&once, "once", false, "Run a single sweep and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	var paths []string
	if configPath != "" {
		paths = append(paths, configPath)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.WithModule("sweeper")

	db, err := database.Open(cfg.Database.Connection())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	store, err := gormstore.New(db)
	if err != nil {
		return err
	}

	sweeper, err := maintenance.NewSweeper(
		[]sqlcache.EntryStore{store},
		maintenance.WithSchedule(cfg.Cache.Schedule),
		maintenance.WithLogger(log),
	)
	if err != nil {
		return err
	}

	if once {
		return sweeper.RunOnce(ctx)
	}

	if err := sweeper.Start(); err != nil {
		return err
	}
	log.Info("sweeper started", zap.String("schedule", cfg.Cache.Schedule))

	<-ctx.Done()
	<-sweeper.Stop().Done()
	log.Info("sweeper stopped")
	return nil
}
