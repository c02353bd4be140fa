package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/RoqueChristian/inventario/internal/config"
	"github.com/RoqueChristian/inventario/internal/repository/flatfile"
	"github.com/RoqueChristian/inventario/internal/repository/mongodb"
	"github.com/RoqueChristian/inventario/internal/repository/sheets"
	"github.com/RoqueChristian/inventario/internal/scheduler"
	"github.com/RoqueChristian/inventario/internal/server/handlers"
	"github.com/RoqueChristian/inventario/internal/server/router"
	"github.com/RoqueChristian/inventario/internal/service/export"
	reportingsvc "github.com/RoqueChristian/inventario/internal/service/reporting"
	whatsappsvc "github.com/RoqueChristian/inventario/internal/service/whatsapp"
	whatsappclient "github.com/RoqueChristian/inventario/pkg/clients/whatsapp"
	"github.com/RoqueChristian/inventario/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	loader, err := flatfile.NewLoader(flatfile.Options{
		Encoding:   cfg.Data.Encoding,
		Registerer: registry,
	}, logger.Named(baseLogger, "repo.flatfile"))
	if err != nil {
		baseLogger.Fatal("failed to init movement file loader", zap.Error(err))
	}

	reportingSvc := reportingsvc.NewService(loader, reportingsvc.Sources{
		Entries: cfg.Data.EntriesPath(),
		Exits:   cfg.Data.ExitsPath(),
		Pending: cfg.Data.PendingPath(),
	}, cfg.Reporting.TopN, logger.Named(baseLogger, "svc.reporting"))

	deps := handlers.Dependencies{
		Service:  reportingSvc,
		Cache:    loader,
		Exporter: export.NewWorkbook(),
	}
	var sinks scheduler.Sinks

	if cfg.MongoDB.Enabled() {
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		cancel()
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		sinks.Store = mongoRepo
		deps.Snapshots = mongoRepo
		baseLogger.Info("mongodb snapshot store enabled", zap.String("db", cfg.MongoDB.DBName))
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sinks.Publisher = sheets.NewSnapshotPublisher(sheetsRepo, cfg.Sheets.SnapshotRange)
		baseLogger.Info("google sheets publishing enabled", zap.String("range", cfg.Sheets.SnapshotRange))
	}

	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, logger.Named(baseLogger, "svc.whatsapp"))
		sinks.Notifier = messagingSvc
		deps.Messaging = messagingSvc
		baseLogger.Info("whatsapp digest enabled")
	} else {
		baseLogger.Warn("whatsapp token missing, digest delivery disabled")
	}

	dashboardHandler := handlers.NewDashboardHandler(deps, logger.Named(baseLogger, "handlers.dashboard"))
	engine, err := router.New(dashboardHandler, registry, logger.Named(baseLogger, "router"))
	if err != nil {
		baseLogger.Fatal("failed to init router", zap.Error(err))
	}

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, sinks, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("data_dir", cfg.Data.Dir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	sched.Stop(shutdownCtx)
}
