package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/league-buysell/cache"
	"github.com/Dosada05/league-buysell/config"
	"github.com/Dosada05/league-buysell/db"
	"github.com/Dosada05/league-buysell/handlers"
	"github.com/Dosada05/league-buysell/live"
	"github.com/Dosada05/league-buysell/mq"
	"github.com/Dosada05/league-buysell/obs"
	"github.com/Dosada05/league-buysell/repositories"
	api "github.com/Dosada05/league-buysell/routes"
	"github.com/Dosada05/league-buysell/services"
	"github.com/Dosada05/league-buysell/storage"
)

const serviceName = "league-buysell"

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("database_driver", cfg.DatabaseDriver),
		slog.String("league_timezone", cfg.Location.String()))

	shutdownTracer, err := obs.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			logger.Error("failed to flush traces", slog.Any("error", err))
		}
	}()

	// Подключение к базе данных
	dbConn, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.Migrate(ctx, dbConn, cfg.DatabaseDriver); err != nil {
		return err
	}
	logger.Info("database connection established")

	dialect, err := repositories.NewDialect(cfg.DatabaseDriver)
	if err != nil {
		return err
	}
	sessionRepo := repositories.NewSessionRepository(dbConn, dialect)
	buySellRepo := repositories.NewBuySellRepository(dbConn, dialect)
	rosterRepo := repositories.NewSessionRosterRepository(dbConn, dialect)
	userRepo := repositories.NewUserRepository(dbConn, dialect)

	// Кэш LockerRoom13 (опционально)
	var lr13Cache *cache.LockerRoom13Cache
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		lr13Cache = cache.NewLockerRoom13Cache(rdb, cfg.LockerRoom13CacheTTL)
		logger.Info("redis cache enabled", slog.Duration("ttl", cfg.LockerRoom13CacheTTL))
	}

	// Инициализация WebSocket Hub
	wsHub := live.NewHub(logger)
	go wsHub.Run(ctx)

	sinks := []services.ActivitySink{live.NewSink(wsHub)}
	if cfg.AMQPURL != "" {
		publisher, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer publisher.Close()
		sinks = append(sinks, mq.NewSink(publisher))
		logger.Info("rabbitmq activity publisher enabled", slog.String("exchange", cfg.AMQPExchange))
	}
	activityService := services.NewActivityService(logger, sinks...)

	// Загрузчик снимков (Cloudflare R2), опционально
	var uploader storage.FileUploader
	if cfg.R2().Enabled() {
		uploader, err = storage.NewR2Uploader(ctx, cfg.R2())
		if err != nil {
			return err
		}
		logger.Info("Cloudflare R2 uploader initialized")
	}

	var (
		rosterCache services.LockerRoom13Cache
		mktOpts     []services.MarketplaceOption
	)
	if lr13Cache != nil {
		rosterCache = lr13Cache
		mktOpts = append(mktOpts, services.WithViewInvalidator(lr13Cache))
	}

	marketplaceService := services.NewMarketplaceService(
		dbConn, sessionRepo, buySellRepo, rosterRepo, userRepo,
		activityService, cfg.Location, logger, mktOpts...,
	)
	rosterService := services.NewRosterService(sessionRepo, buySellRepo, rosterRepo, userRepo, rosterCache, logger, nil)
	snapshotService := services.NewSnapshotService(rosterService, uploader, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Session:     handlers.NewSessionHandler(rosterService),
		Marketplace: handlers.NewMarketplaceHandler(marketplaceService),
		LockerRoom:  handlers.NewLockerRoomHandler(rosterService, snapshotService),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, rosterService, cfg.CORSAllowedOrigins, logger),
		Health:      handlers.NewHealthHandler(dbConn),
	}, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	})

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
	}
	return nil
}
