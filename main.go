package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"bookstore-restful/auth"
	"bookstore-restful/config"
	"bookstore-restful/controllers"
	"bookstore-restful/database"
	"bookstore-restful/interceptors"
	"bookstore-restful/repositories"
	"bookstore-restful/services"
)

const shutdownTimeout = 10 * time.Second

func newLogger(level string) (*zap.Logger, error) {
	switch level {
	case "debug":
		return zap.NewDevelopment()
	default:
		return zap.NewProduction()
	}
}

func main() {
	// Initialize configs
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer logger.Sync() // Make sure the buffer is flushed before the program exits

	logger.Info("Configuration loaded", zap.Stringer("config", cfg))
	if cfg.UsesInsecureSecret() {
		logger.Warn("Using the built-in token secret; set BOOKSTORE_TOKEN_SECRET in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Schema problems are fatal before the listener is bound.
	if err := database.EnsureDatabase(ctx, cfg, logger); err != nil {
		logger.Fatal("Failed to ensure database", zap.Error(err))
	}
	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.EnsureSchema(ctx, db, logger); err != nil {
		logger.Fatal("Failed to ensure schema", zap.Error(err))
	}
	if err := database.SeedAdmin(ctx, db, cfg, logger); err != nil {
		logger.Fatal("Failed to seed admin user", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)
	userService, err := services.NewUserService(repositories.NewUserRepository(db), tokens, cfg.BcryptCost, logger)
	if err != nil {
		logger.Fatal("Failed to create user service", zap.Error(err))
	}
	bookService := services.NewBookService(repositories.NewBookRepository(db), logger)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := interceptors.NewMetrics(promRegistry)
	if err != nil {
		logger.Fatal("Failed to register metrics", zap.Error(err))
	}

	container := controllers.NewContainer(controllers.Options{
		UserService:             userService,
		BookService:             bookService,
		Tokens:                  tokens,
		Logger:                  logger,
		Metrics:                 metrics,
		Gatherer:                promRegistry,
		ExposeErrorDetails:      cfg.ExposeErrorDetails,
		RoleUpdateRequiresAdmin: cfg.RoleUpdateRequiresAdmin,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           container,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server is running", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		logger.Error("Failed to close database", zap.Error(err))
	}
	logger.Info("Server stopped")
}
