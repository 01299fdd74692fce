package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/config"
	"github.com/legalchicks/coopnet/internal/metrics"
	"github.com/legalchicks/coopnet/internal/realtime"
	"github.com/legalchicks/coopnet/internal/repository/mongodb"
	"github.com/legalchicks/coopnet/internal/repository/sheets"
	"github.com/legalchicks/coopnet/internal/scheduler"
	"github.com/legalchicks/coopnet/internal/server/handlers"
	"github.com/legalchicks/coopnet/internal/server/router"
	advisorsvc "github.com/legalchicks/coopnet/internal/service/advisor"
	authsvc "github.com/legalchicks/coopnet/internal/service/auth"
	farmsvc "github.com/legalchicks/coopnet/internal/service/farm"
	marketsvc "github.com/legalchicks/coopnet/internal/service/market"
	membershipsvc "github.com/legalchicks/coopnet/internal/service/membership"
	networksvc "github.com/legalchicks/coopnet/internal/service/network"
	settingssvc "github.com/legalchicks/coopnet/internal/service/settings"
	"github.com/legalchicks/coopnet/pkg/clients/gemini"
	"github.com/legalchicks/coopnet/pkg/clients/supastore"
	"github.com/legalchicks/coopnet/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	metrics.Init(cfg.Metrics.Namespace)

	store, err := mongodb.NewMongoStore(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	// The roster export is optional; the endpoint reports itself disabled
	// when no credentials are configured.
	var rosterRepo sheets.Repository
	if cfg.Sheets.CredentialsPath != "" {
		rosterRepo, err = sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
	} else {
		baseLogger.Warn("sheets credentials missing, roster export disabled")
	}

	var aiClient gemini.Client
	if cfg.AI.GeminiKey != "" {
		aiClient = gemini.NewClient(cfg.AI.GeminiKey, cfg.AI.GeminiModel)
		baseLogger.Info("gemini ai client enabled")
	} else {
		baseLogger.Warn("gemini api key missing, advisory reports disabled")
	}

	var storageClient supastore.Client
	if cfg.Storage.BaseURL != "" && cfg.Storage.ServiceKey != "" {
		storageClient = supastore.NewClient(cfg.Storage)
		baseLogger.Info("object storage client enabled")
	} else {
		baseLogger.Warn("storage credentials missing, photo uploads disabled")
	}

	broker := realtime.NewBroker(baseLogger.Named("realtime"))

	authService := authsvc.NewService(store, cfg.Auth, baseLogger.Named("svc.auth"))
	membershipService := membershipsvc.NewService(store, broker, baseLogger.Named("svc.membership"))
	marketService := marketsvc.NewService(store, broker, baseLogger.Named("svc.market"))
	networkService := networksvc.NewService(store, rosterRepo, broker, baseLogger.Named("svc.network"))
	farmService := farmsvc.NewService(store, broker, baseLogger.Named("svc.farm"))
	advisorService := advisorsvc.NewService(aiClient, baseLogger.Named("svc.advisor"))
	settingsService := settingssvc.NewService(store, storageClient, broker, baseLogger.Named("svc.settings"))

	engine := router.New(router.Handlers{
		Auth:       handlers.NewAuthHandler(authService, baseLogger.Named("handlers.auth")),
		Membership: handlers.NewMembershipHandler(membershipService, baseLogger.Named("handlers.membership")),
		Market:     handlers.NewMarketHandler(marketService, baseLogger.Named("handlers.market")),
		Dashboard:  handlers.NewDashboardHandler(farmService, networkService, advisorService, baseLogger.Named("handlers.dashboard")),
		Admin:      handlers.NewAdminHandler(networkService, membershipService, marketService, baseLogger.Named("handlers.admin")),
		Settings:   handlers.NewSettingsHandler(settingsService, baseLogger.Named("handlers.settings")),
		Stream:     handlers.NewStreamHandler(broker, baseLogger.Named("handlers.stream")),
	}, authService, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Scheduler, farmService, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
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
}
