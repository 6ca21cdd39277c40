package main

import (
	"context"
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"

	"crowd-monitor/internal/adapters/repo"
	"crowd-monitor/internal/adapters/storage"
	"crowd-monitor/internal/infra/config"
	"crowd-monitor/internal/infra/db"
	applog "crowd-monitor/internal/infra/log"
	"crowd-monitor/internal/infra/metrics"
	syncusecase "crowd-monitor/internal/usecase/sync"
)

type options struct {
	Status  bool   `long:"status" description:"Report archive and store counts without importing"`
	DB      string `long:"db" description:"Database DSN, overrides SYNC_DB_DSN"`
	DataDir string `long:"data-dir" description:"Archive root, overrides DATA_DIR"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		os.Exit(1)
	}

	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	dsn := cfg.Sync.DBDSN
	if opts.DB != "" {
		dsn = opts.DB
	}
	dataDir := cfg.Storage.DataDir
	if opts.DataDir != "" {
		dataDir = opts.DataDir
	}

	database, dialect, err := db.Open(dsn)
	if err != nil {
		logger.Fatal().Err(err).Str("dsn", dsn).Msg("failed to open database")
	}
	defer database.Close()

	ctx := context.Background()
	store := repo.NewSQL(database, dialect)
	if err := store.InitSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to init schema")
	}

	locations, err := config.LoadLocations(cfg.Sync.LocationsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load locations file")
	}

	svc := syncusecase.NewService(storage.NewFSArchive(dataDir), store, locations, logger)

	if opts.Status {
		report, err := svc.Status(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("status failed")
		}
		fmt.Println("=== Sync Status ===")
		fmt.Printf("Archive objects:  %d\n", report.Found)
		fmt.Printf("Already synced:   %d\n", report.Skipped)
		fmt.Printf("Pending:          %d\n", report.Pending)
		fmt.Printf("Readings stored:  %d\n", report.Total)
		return
	}

	report, err := svc.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("sync failed")
	}
	fmt.Println("=== Sync Complete ===")
	fmt.Printf("Archive objects:  %d\n", report.Found)
	fmt.Printf("New readings:     %d\n", report.New)
	fmt.Printf("Skipped:          %d\n", report.Skipped)
	fmt.Printf("Errors:           %d\n", report.Errors)
	fmt.Printf("Readings stored:  %d\n", report.Total)
	if report.Errors > 0 {
		os.Exit(1)
	}
}
