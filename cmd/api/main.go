package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-sync/internal/catalog"
	"catalog-sync/internal/config"
	"catalog-sync/internal/database"
	"catalog-sync/internal/handler"
	"catalog-sync/internal/notify"
	"catalog-sync/internal/repository"
	"catalog-sync/internal/router"
	"catalog-sync/internal/scheduler"
	"catalog-sync/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting catalog-sync API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	tenantRepo := repository.NewTenantRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)

	// Initialize external collaborators
	catalogClient := catalog.NewClient(catalog.Config{
		Host:        cfg.Catalog.Host,
		Path:        cfg.Catalog.Path,
		Region:      cfg.Catalog.Region,
		Service:     cfg.Catalog.Service,
		Target:      cfg.Catalog.Target,
		Marketplace: cfg.Catalog.Marketplace,
		Languages:   []string{cfg.Catalog.Language},
	}, nil, logger)

	notifier := notify.NewTelegramNotifier(notify.Config{
		APIBase:      cfg.Notifier.APIBase,
		CaptionLimit: cfg.Notifier.CaptionLimit,
		Timezone:     cfg.Notifier.Timezone,
	}, nil, logger)

	// Initialize services
	itemService := service.NewItemService(catalogClient, logger)
	reconcileService := service.NewReconcileService(
		tenantRepo, productRepo, catalogClient, notifier, cfg.Scheduler.BatchSize, logger)

	// Initialize HTTP handlers
	itemHandler := handler.NewItemHandler(itemService, logger)
	reconcileHandler := handler.NewReconcileHandler(reconcileService, logger)

	// Initialize router
	mux := router.New(itemHandler, reconcileHandler, cfg.Auth.APIKey, logger)

	// Start the periodic reconciliation schedule when configured
	if cfg.Scheduler.CronSpec != "" {
		sched, err := scheduler.New(cfg.Scheduler.CronSpec, reconcileService, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
