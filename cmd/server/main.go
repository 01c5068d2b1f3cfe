package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/paycms/console/internal/api"
	"github.com/paycms/console/internal/calendar"
	"github.com/paycms/console/internal/cms"
	"github.com/paycms/console/internal/config"
	"github.com/paycms/console/internal/ingestion"
	"github.com/paycms/console/internal/logging"
	"github.com/paycms/console/internal/reconciliation"
	"github.com/paycms/console/internal/repository"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "cms console: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	if err := config.LoadDotenv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	loc, err := cfg.Calendar.Location()
	if err != nil {
		return err
	}
	holidays, err := cfg.Calendar.Holidays()
	if err != nil {
		return fmt.Errorf("load holidays: %w", err)
	}
	policy, err := cfg.Calendar.Policy()
	if err != nil {
		return err
	}
	cal := calendar.New(holidays, cfg.Calendar.Rules())

	first, last := holidays.Horizon()
	if year := time.Now().In(loc).Year(); !holidays.Covers(year) {
		log.Warn("holiday table does not cover the current year; only weekends are closed",
			zap.Int("year", year), zap.Int("first_year", first), zap.Int("last_year", last))
	}

	log.Info("initializing database", zap.String("path", cfg.Storage.SQLitePath))
	db, err := repository.InitDB(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	defer db.Close()

	// Create repositories.
	memberRepo := repository.NewMemberRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	evidenceRepo := repository.NewEvidenceRepo(db)
	importRepo := repository.NewImportRepo(db)

	// Create services.
	cmsSvc := cms.NewService(cal, memberRepo, paymentRepo, evidenceRepo, cms.Options{
		Policy:           policy,
		ProcessingDelay:  cfg.Mock.ProcessingDelay,
		MaxEvidenceBytes: cfg.Mock.MaxEvidenceBytes,
		Location:         loc,
		Logger:           log.Named("cms"),
	})
	importSvc := ingestion.NewService(importRepo, loc, log.Named("ingestion"))
	reconSvc := reconciliation.NewService(paymentRepo, cal, policy, log.Named("reconciliation"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Seed members if DB is empty.
	count, err := memberRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count members: %w", err)
	}
	if count == 0 && cfg.Storage.SeedFile != "" {
		log.Info("database is empty, seeding members", zap.String("file", cfg.Storage.SeedFile))
		if err := seedMembers(ctx, importSvc, cfg.Storage.SeedFile, cfg.Storage.SeedServiceID); err != nil {
			log.Warn("failed to seed members", zap.Error(err))
		}
	} else {
		log.Info("skipping seed", zap.Int("members", count))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(cmsSvc, importSvc, reconSvc, repository.NewUserRepo(db), log.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("CMS settlement console listening",
			zap.String("addr", srv.Addr),
			zap.String("settlement_mode", policy.Name()),
			zap.String("timezone", loc.String()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func seedMembers(ctx context.Context, importer *ingestion.Service, path, serviceID string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	format := ingestion.FormatJSON
	if filepath.Ext(path) == ".csv" {
		format = ingestion.FormatCSV
	}
	res, err := importer.Import(ctx, serviceID, data, format)
	if err != nil {
		return err
	}
	zap.L().Info("seeded members",
		zap.String("service_id", serviceID),
		zap.Int("imported", res.RecordsImported),
		zap.Int("rejected", len(res.Rejected)),
	)
	return nil
}
