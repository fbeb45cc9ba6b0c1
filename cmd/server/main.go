package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/mediaid/mediaid-api/internal/config"
	"github.com/mediaid/mediaid-api/internal/database"
	"github.com/mediaid/mediaid-api/internal/handler"
	"github.com/mediaid/mediaid-api/internal/logger"
	"github.com/mediaid/mediaid-api/internal/middleware"
	"github.com/mediaid/mediaid-api/internal/queue"
	"github.com/mediaid/mediaid-api/internal/repository"
	"github.com/mediaid/mediaid-api/internal/router"
)

func main() {
	if err := config.LoadEnvFile(); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	appLogger, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLogger.Sync()

	db, err := database.Open(cfg.DB())
	if err != nil {
		appLogger.Fatal("cannot connect to db", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("connected to database", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

	rdb, err := config.NewRedisClient(context.Background(), config.LoadRedisConfig())
	if err != nil {
		appLogger.Warn("redis unavailable, caching and rate limiting disabled", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	publisher := queue.NewPublisher(cfg.AMQPURL, appLogger)
	consumer := queue.NewConsumer(cfg.AMQPURL, "logs", appLogger)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error("alert consumer stopped", zap.Error(err))
		}
	}()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	services := repository.NewServiceRepo(db)
	bloodRequests := repository.NewBloodRequestRepo(db)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.RequestLogger(appLogger))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, appLogger))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, appLogger), cfg.JWTSecret)
	router.RegisterDirectory(e, handler.NewDirectoryHandler(services, appLogger), cfg.JWTSecret,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb, appLogger))
	router.RegisterEmergency(e,
		handler.NewBloodRequestHandler(bloodRequests, publisher, appLogger),
		handler.NewSOSHandler(services, publisher, appLogger),
		cfg.JWTSecret)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server forced to shutdown", zap.Error(err))
	}
	stop()
	<-consumerDone

	appLogger.Info("server exiting")
}
