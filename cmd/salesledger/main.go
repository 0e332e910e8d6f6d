package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"salesledger/internal/amqp"
	"salesledger/internal/backend"
	"salesledger/internal/cache"
	"salesledger/internal/cli"
	"salesledger/internal/config"
	"salesledger/internal/core"
	apphttp "salesledger/internal/http"
	"salesledger/internal/ledger"
	"salesledger/internal/log"
	"salesledger/internal/services"
	"salesledger/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		cli.Fatal(logger, "Server error", err)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	cal, err := cfg.Calendar()
	if err != nil {
		return err
	}
	asOf := func() core.Date {
		// Validated at startup.
		d, _ := cfg.AsOf(time.Now())
		return d
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	holder := ledger.NewHolder(res.Source)
	if snap, err := holder.Reload(ctx); err != nil {
		// The server still starts; /readyz reports 503 until a reload succeeds.
		logger.Error("Initial ledger load failed", log.FieldError, err, log.FieldOperation, log.OpStartup)
	} else {
		logger.Info("Ledger loaded", log.FieldSnapshotVer, snap.Version(), log.FieldRecordsIn, snap.Len())
	}

	svc := services.NewQueryService(holder, cal, services.Settings{
		CompanyName:     cfg.CompanyName,
		DefaultCurrency: cfg.DefaultCurrency,
		Denomination:    cfg.Denomination,
	}, asOf, logger)

	caches := cache.NewManager()
	caches.Register(svc.MetadataCache())
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	}, svc, holder)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting salesledger server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"fiscal_year_end", cfg.FiscalYearEnd)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		return nil
	})

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, reload notifications disabled", log.FieldError, err)
		} else {
			defer client.Close()
			logger.Info("Listening for ledger reload notifications",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			reloads := worker.NewReloadWorker(holder, client)
			g.Go(func() error { return reloads.Run(gctx) })
		}
	} else {
		logger.Info("AMQP disabled - ledger reloads only via /api/reload")
	}

	if cfg.RefreshInterval > 0 {
		g.Go(func() error {
			refreshPeriodically(gctx, holder, cfg.RefreshInterval, logger)
			return nil
		})
	}

	return g.Wait()
}

// refreshPeriodically reloads the snapshot on every tick until ctx is done.
// A failed reload keeps the previous snapshot.
func refreshPeriodically(ctx context.Context, holder *ledger.Holder, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := holder.Reload(ctx)
			if err != nil {
				logger.Error("Periodic ledger reload failed", log.FieldError, err, log.FieldOperation, log.OpReload)
				continue
			}
			logger.Debug("Periodic ledger reload", log.FieldSnapshotVer, snap.Version(), log.FieldRecordsIn, snap.Len())
		}
	}
}
