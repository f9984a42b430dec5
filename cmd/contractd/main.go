// SPDX-License-Identifier: MIT
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

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/warehousekit/contractd/internal/api"
	"github.com/warehousekit/contractd/internal/bus"
	"github.com/warehousekit/contractd/internal/config"
	"github.com/warehousekit/contractd/internal/log"
	"github.com/warehousekit/contractd/internal/persistence/sqlite"
	"github.com/warehousekit/contractd/internal/saga"
	"github.com/warehousekit/contractd/internal/scheduler"
	"github.com/warehousekit/contractd/internal/service"
	"github.com/warehousekit/contractd/internal/store"
)

var (
	version   = "v0.3.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	log.Configure(log.Config{Level: "info", Service: "contractd"})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	log.Configure(log.Config{Level: cfg.LogLevel, Service: cfg.LogService})

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("daemon exited with error")
	}
	logger.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	db, err := sqlite.Open(cfg.SQLitePath, sqlite.DefaultConfig())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	contractRepo, err := sqlite.NewContractRepository(db)
	if err != nil {
		return err
	}
	orgRepo, err := sqlite.NewOrgRepository(db)
	if err != nil {
		return err
	}

	sagaStore, err := store.OpenSagaStore(filepath.Join(cfg.DataDir, "saga"))
	if err != nil {
		return err
	}
	defer func() { _ = sagaStore.Close() }()

	msgBus := bus.NewMemoryBus()

	sched, err := scheduler.NewRedisScheduler(scheduler.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, msgBus, cfg.SchedulerPoll)
	if err != nil {
		return fmt.Errorf("connect timeout scheduler: %w", err)
	}
	defer func() { _ = sched.Close() }()

	contracts := service.NewContracts(contractRepo)
	orchestrator := saga.NewOrchestrator(sagaStore, sched, msgBus, cfg.InactivityTimeout)
	server := api.NewServer(msgBus, contracts, sagaStore, service.NewOrg(orgRepo))

	httpServer := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: api.NewRouter(server, api.RouterConfig{
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
			TracingService: cfg.TracingService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return service.NewConsumer(contracts, msgBus).Run(ctx)
	})
	g.Go(func() error {
		return saga.NewConsumer(orchestrator, msgBus).Run(ctx)
	})
	g.Go(func() error {
		sched.Run(ctx)
		return nil
	})
	g.Go(func() error {
		logger.Info().
			Str("addr", cfg.ListenAddr).
			Dur("inactivity_timeout", cfg.InactivityTimeout).
			Msg("contractd listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
