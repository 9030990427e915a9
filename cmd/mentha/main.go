package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mentha-app/mentha/internal/api"
	"github.com/mentha-app/mentha/internal/config"
	"github.com/mentha-app/mentha/internal/jobs"
	"github.com/mentha-app/mentha/internal/logger"
	"github.com/mentha-app/mentha/internal/service"
	"github.com/mentha-app/mentha/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logg := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logg.Fatal().Err(err).Msg("mkdir db dir")
	}
	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		logg.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		logg.Fatal().Err(err).Msg("migrate")
	}
	store := storage.NewStore(db)
	if err := storage.SeedDefaults(ctx, store); err != nil {
		logg.Fatal().Err(err).Msg("seed defaults")
	}

	applier := &service.RuleApplier{Store: store, PageSize: cfg.Jobs.PageSize, Log: logg}
	queue := jobs.NewQueue(func(ctx context.Context, job jobs.ApplyRulesJob) error {
		updated, err := applier.Run(ctx, job.Owner, job.UncategorizedOnly)
		if err != nil {
			return err
		}
		logg.Info().Stringer("job", job.ID).Int("updated", updated).Msg("rule pass complete")
		return nil
	}, cfg.Jobs.Workers, cfg.Jobs.Buffer, logg)
	queue.Start(ctx)
	defer queue.Stop()

	go func() {
		for jobErr := range queue.Errors() {
			logg.Error().Err(jobErr.Err).Stringer("job", jobErr.Job.ID).Msg("background job failed")
		}
	}()

	srv := api.NewServer(store, queue, cfg.Import.Inbox, cfg.Import.Complete, logg)
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info().Str("addr", cfg.HTTP.Addr).Msg("listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logg.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logg.Error().Err(err).Msg("shutdown")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal().Err(err).Msg("server")
		}
	}
}
