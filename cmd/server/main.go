package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cert-roster-api/internal/api"
	"github.com/cert-roster-api/internal/config"
	"github.com/cert-roster-api/internal/database"
	"github.com/cert-roster-api/internal/mailq"
	"github.com/cert-roster-api/internal/repository"
	"github.com/cert-roster-api/internal/service"
	"github.com/cert-roster-api/internal/workflow"
	"github.com/cert-roster-api/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New()
	log.Info().Msg("Starting certificate roster API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}
	if err := db.RunMigrations(migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Connect to the mail worker broker
	publisher, err := mailq.NewRabbitPublisher(cfg.Email.RabbitURL, cfg.Email.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to mail worker broker")
	}
	defer publisher.Close()

	// Initialize repositories and services
	repos := repository.New(db)
	services := service.NewServices(repos, publisher, cfg, log)
	sessions := workflow.NewManager(cfg.Roster.SessionResetDelay)

	// Initialize router
	router := api.NewRouter(services, sessions, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
