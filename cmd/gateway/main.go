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

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/netview/gateway/internal/backend"
	"github.com/netview/gateway/internal/config"
	"github.com/netview/gateway/internal/httpapi"
	"github.com/netview/gateway/internal/logging"
	"github.com/netview/gateway/internal/notify"
	"github.com/netview/gateway/internal/probe"
	"github.com/netview/gateway/internal/repo"
	"github.com/netview/gateway/internal/repo/memory"
	"github.com/netview/gateway/internal/repo/sqlite"
	"github.com/netview/gateway/internal/scheduler"
	"github.com/netview/gateway/internal/syncer"
)

// probePace is the fixed delay between probes within one cycle.
const probePace = time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}

	var (
		store  repo.ResultStore
		closer func() error = func() error { return nil }
	)
	if cfg.StoragePath == "" {
		store = memory.New(cfg.MaxLocalResults)
		logger.Warn("memory_store_selected")
	} else {
		if err := os.MkdirAll(cfg.StoragePath, 0o755); err != nil {
			logger.Fatal("storage_dir_error", zap.Error(err))
		}
		db, err := sqlite.New(filepath.Join(cfg.StoragePath, "results.db"), cfg.MaxLocalResults, logger)
		if err != nil {
			logger.Fatal("store_open_error", zap.Error(err))
		}
		store = db
		closer = db.Close
	}

	client := backend.New(cfg.BackendURL, cfg.APIKey, cfg.UserAgent, logger)
	engine := probe.NewEngine(logger, cfg.GatewayID, cfg.DefaultTimeout, cfg.VerifySSL, cfg.UserAgent, probe.Unsupported{})
	rec := syncer.New(logger, store, client, syncer.Identity{
		ID:       cfg.GatewayID,
		Type:     cfg.GatewayType,
		Name:     cfg.GatewayName,
		Location: cfg.GatewayLocation,
	})

	var alerter *scheduler.Alerter
	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		alerter = scheduler.NewAlerter(logger, notify.Multi{slack}, true, 15*time.Minute)
		logger.Info("down_alerts_enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	probeLoop := &scheduler.Loop{Name: "probe", Interval: cfg.ProbeCheckInterval, Logger: logger}
	runner := &scheduler.ProbeRunner{
		Logger:  logger,
		Source:  client,
		Engine:  engine,
		Results: store,
		Alerter: alerter,
		Pace:    probePace,
	}
	go probeLoop.Run(ctx, runner.RunOnce)

	syncLoop := &scheduler.Loop{Name: "sync", Interval: cfg.SyncInterval, Logger: logger}
	go syncLoop.Run(ctx, (&scheduler.SyncRunner{Reconciler: rec}).RunOnce)

	api := httpapi.NewServer(logger, store, engine, rec, client, httpapi.Identity{
		ID:   cfg.GatewayID,
		Type: cfg.GatewayType,
	})
	api.Limits.AdminKeys = cfg.AdminAPIKeys
	api.Limits.RPM = cfg.AdminRPM
	api.Limits.Burst = cfg.AdminBurst

	srv := &http.Server{Addr: cfg.Addr, Handler: api.Router()}
	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	logger.Info("gateway_started",
		zap.String("gateway_id", cfg.GatewayID),
		zap.String("gateway_type", cfg.GatewayType),
		zap.String("addr", cfg.Addr),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("serve_error", zap.Error(err))
	}

	if err := multierr.Append(closer(), logger.Sync()); err != nil {
		log.Print(err)
	}
}
