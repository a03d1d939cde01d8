package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/fluxo-pos/api/routes"
	"github.com/angelmondragon/fluxo-pos/internal/cart"
	"github.com/angelmondragon/fluxo-pos/internal/catalog"
	"github.com/angelmondragon/fluxo-pos/internal/checkout"
	"github.com/angelmondragon/fluxo-pos/internal/connectivity"
	"github.com/angelmondragon/fluxo-pos/internal/cron"
	"github.com/angelmondragon/fluxo-pos/internal/kitchen"
	"github.com/angelmondragon/fluxo-pos/internal/offline"
	"github.com/angelmondragon/fluxo-pos/internal/offlinesync"
	"github.com/angelmondragon/fluxo-pos/internal/promotions"
	"github.com/angelmondragon/fluxo-pos/internal/register"
	"github.com/angelmondragon/fluxo-pos/internal/remote"
	"github.com/angelmondragon/fluxo-pos/pkg/config"
	"github.com/angelmondragon/fluxo-pos/pkg/db"
	"github.com/angelmondragon/fluxo-pos/pkg/instance"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
	"github.com/angelmondragon/fluxo-pos/pkg/metrics"
	"github.com/angelmondragon/fluxo-pos/pkg/migrate"
	"github.com/angelmondragon/fluxo-pos/pkg/redis"
)

const (
	syncLockName         = "offline-sync"
	catalogRefreshEvery  = 5 * time.Minute
	shutdownGracePeriod  = 10 * time.Second
	serverReadHeaderTime = 5 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "pos-agent"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "pos-agent",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields: map[string]string{
			"company_id":  cfg.App.CompanyID,
			"terminal_id": cfg.App.TerminalID,
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})

	localClient, err := db.OpenLocal(ctx, cfg.LocalStore, logg)
	if err != nil {
		logg.Error(ctx, "failed to open local store", err)
		os.Exit(1)
	}
	defer func() {
		if err := localClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing local store", err)
		}
	}()

	if err := offline.Migrate(ctx, localClient.DB()); err != nil {
		logg.Error(ctx, "failed to migrate local store", err)
		os.Exit(1)
	}

	queue := offline.NewQueue(localClient.DB())
	if cfg.Sync.RecoverStuck {
		reset, err := queue.ResetSyncing(ctx)
		if err != nil {
			logg.Error(ctx, "failed to recover stuck orders", err)
			os.Exit(1)
		}
		if reset > 0 {
			logg.Warn(logg.WithField(ctx, "count", reset), "recovered orders stranded in syncing")
		}
	}

	remoteClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap remote database", err)
		os.Exit(1)
	}
	defer func() {
		if err := remoteClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing remote database", err)
		}
	}()

	monitor := connectivity.NewMonitor(false, logg)
	if monitor.Probe(ctx, remoteClient, cfg.Connectivity.ProbeTimeout) {
		if err := migrate.MaybeRunDev(ctx, cfg, logg, remoteClient); err != nil {
			logg.Error(ctx, "failed to run dev migrations", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "remote store unreachable at boot; starting offline")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "redis unavailable; continuing without idempotency cache")
			redisClient = nil
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logg.Error(context.Background(), "error closing redis", err)
				}
			}()
		}
	}

	writer := remote.NewOrderWriter(remoteClient.DB(), logg)
	submitter := remote.NewBreakerSubmitter(writer, cfg.Breaker, logg)
	submit := remote.SubmitWithTimeout(submitter, cfg.Sync.SubmitTimeout)

	catalogSvc, err := catalog.NewService(catalog.ServiceParams{
		CompanyID:    cfg.App.CompanyID,
		Remote:       remote.NewCatalogReader(remoteClient.DB()),
		Cache:        queue,
		Connectivity: monitor,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	var engineOpts []promotions.Option
	if cfg.Promotions.ClampNegativeTotals {
		engineOpts = append(engineOpts, promotions.WithClampAtZero())
	}

	sessions := cart.NewSessions()
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		CompanyID:    cfg.App.CompanyID,
		TerminalID:   cfg.App.TerminalID,
		Sessions:     sessions,
		Engine:       promotions.NewEngine(engineOpts...),
		Promotions:   catalogSvc,
		Submitter:    submitter,
		Queue:        queue,
		Connectivity: monitor,
		Metrics:      metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		Logger:       logg,

		SubmitTimeout: cfg.Checkout.SubmitTimeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	mode, err := offlinesync.ParseRetryMode(cfg.Sync.RetryMode)
	if err != nil {
		logg.Error(ctx, "invalid sync retry mode", err)
		os.Exit(1)
	}

	var syncLock offlinesync.Lock
	if cfg.Sync.DistributedLock && redisClient != nil {
		syncLock, err = cron.NewRedisLock(redisClient, redisClient.LockKey(syncLockName, cfg.App.CompanyID), cfg.Sync.LockTTL)
		if err != nil {
			logg.Error(ctx, "failed to create sync lock", err)
			os.Exit(1)
		}
	}

	orchestrator, err := offlinesync.New(offlinesync.Params{
		Store:   queue,
		Logger:  logg,
		Lock:    syncLock,
		Metrics: metrics.NewSyncMetrics(prometheus.DefaultRegisterer),
		Policy: offlinesync.RetryPolicy{
			Mode:        mode,
			MaxAttempts: cfg.Sync.MaxAttempts,
			BackoffBase: cfg.Sync.BackoffBase,
			BackoffMax:  cfg.Sync.BackoffMax,
		},
	})
	if err != nil {
		logg.Error(ctx, "failed to create sync orchestrator", err)
		os.Exit(1)
	}
	if _, err := orchestrator.RefreshPendingCount(ctx); err != nil {
		logg.Error(ctx, "failed to count pending orders", err)
	}

	registerSvc, err := register.NewService(register.ServiceParams{
		DB:         remoteClient.DB(),
		CompanyID:  cfg.App.CompanyID,
		TerminalID: cfg.App.TerminalID,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create register service", err)
		os.Exit(1)
	}

	kitchenSvc, err := kitchen.NewService(remoteClient.DB(), cfg.App.CompanyID, logg)
	if err != nil {
		logg.Error(ctx, "failed to create kitchen service", err)
		os.Exit(1)
	}

	cronService, err := newCronService(cfg, logg, monitor, remoteClient, orchestrator, catalogSvc, submit)
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		os.Exit(1)
	}

	deps := routes.Deps{
		LocalStore:   localClient,
		Connectivity: monitor,
		Breaker:      submitter,
		Metrics:      prometheus.DefaultGatherer,
		Sessions:     sessions,
		Checkout:     checkoutSvc,
		Catalog:      catalogSvc,
		Sync:         orchestrator,
		Submit:       submit,
		Queue:        queue,
		Register:     registerSvc,
		Kitchen:      kitchenSvc,
	}
	if redisClient != nil {
		deps.Idempotency = redisClient
	}

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: serverReadHeaderTime,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logg.Info(logg.WithField(groupCtx, "addr", server.Addr), "starting pos agent")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := cronService.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(groupCtx), shutdownGracePeriod)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logg.Error(ctx, "pos agent stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(context.WithoutCancel(ctx), "pos agent shutting down gracefully")
}

func newCronService(
	cfg *config.Config,
	logg *logger.Logger,
	monitor *connectivity.Monitor,
	remoteStore connectivity.Pinger,
	orchestrator *offlinesync.Orchestrator,
	catalogSvc *catalog.Service,
	submit offlinesync.SubmitFunc,
) (*cron.Service, error) {
	probe, err := cron.NewConnectivityJob(monitor, remoteStore, cfg.Connectivity.ProbeTimeout, cfg.Connectivity.ProbeInterval)
	if err != nil {
		return nil, err
	}
	drain, err := cron.NewSyncJob(cron.SyncJobParams{
		Logger:       logg,
		Orchestrator: orchestrator,
		Monitor:      monitor,
		Submit:       submit,
		Every:        cfg.Sync.Interval,
	})
	if err != nil {
		return nil, err
	}
	refresh, err := cron.NewCatalogRefreshJob(catalogSvc, monitor, catalogRefreshEvery)
	if err != nil {
		return nil, err
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(probe, drain, refresh),
		Lock:     cron.NewLocalLock(),
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Connectivity.ProbeInterval,
	})
}
