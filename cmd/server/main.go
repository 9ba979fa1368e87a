package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "mailforge/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mailforge/internal/auth"
	"mailforge/internal/cache"
	"mailforge/internal/config"
	"mailforge/internal/db"
	"mailforge/internal/handler"
	"mailforge/internal/logging"
	"mailforge/internal/repository"
	"mailforge/internal/router"
	"mailforge/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Mailforge API
// @version 1.0
// @description Email template authoring API with JWT sessions, ownership rules and an admin console.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// ratings are rendered as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("database init", zap.Error(err))
	}
	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, continuing without cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	cancel()

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(gormDB)
	templateRepo := repository.NewTemplateRepository(gormDB)

	// Initialize auth components
	codec := auth.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL)

	// Initialize services
	pages := service.PageLimits{Default: cfg.DefaultPageSize, Max: cfg.MaxPageSize}
	authService := service.NewAuthService(accountRepo, codec, cacheClient, logger)
	accountService := service.NewAccountService(accountRepo, templateRepo, cacheClient, logger, pages)
	templateService := service.NewTemplateService(templateRepo, service.NewPreviewRenderer(), logger, pages)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, cfg, logger, codec, accountService, router.Handlers{
		Auth:     handler.NewAuthHandler(authService, accountService),
		Template: handler.NewTemplateHandler(templateService),
		Admin:    handler.NewAdminHandler(accountService, templateService),
	})

	logger.Info("swagger documentation available", zap.String("url", swaggerURL(cfg.SwaggerHost, cfg.ServerPort)))

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := e.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown", zap.Error(err))
	}
}

// swaggerURL may receive a host with or without scheme.
func swaggerURL(host, port string) string {
	if host == "" {
		return "http://localhost:" + port + "/swagger/index.html"
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/") + "/swagger/index.html"
}
