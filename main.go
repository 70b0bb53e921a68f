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

	"github.com/isdelr/studentily-be/internal/api"
	"github.com/isdelr/studentily-be/internal/auth"
	"github.com/isdelr/studentily-be/internal/config"
	"github.com/isdelr/studentily-be/internal/database"
	"github.com/isdelr/studentily-be/internal/logger"
	"github.com/isdelr/studentily-be/internal/metrics"
	"github.com/isdelr/studentily-be/internal/monitoring"
	"github.com/isdelr/studentily-be/internal/services"
	"github.com/isdelr/studentily-be/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel, !cfg.Production)

	// Set up store
	st, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize store")
	}
	defer st.Close()

	tokens, err := auth.NewTokenService(cfg.SecretKey, cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token service")
	}

	// Set up metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Set up services
	userService := services.NewUserService(st)
	resourceService := services.NewResourceService(st)

	// Set up and run the background stats updater
	statUpdater := monitoring.NewStatUpdater(30 * time.Second)
	go statUpdater.Run()

	// Set up and run the orphan purger
	var purger *monitoring.OrphanPurger
	if cfg.PurgeSchedule != "" {
		purger, err = monitoring.NewOrphanPurger(st, collector, cfg.PurgeSchedule)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize orphan purger")
		}
		purger.Run()
	}

	// Set up router
	router := api.NewRouter(api.RouterDeps{
		UserService:     userService,
		ResourceService: resourceService,
		Tokens:          tokens,
		Store:           st,
		HostStats:       statUpdater,
		Metrics:         collector,
		Gatherer:        registry,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	statUpdater.Stop()
	if purger != nil {
		purger.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}

// openStore picks MongoDB for mongodb:// URLs and SQLite for everything else.
func openStore(cfg *config.Config) (store.Store, error) {
	if database.IsMongoURL(cfg.DatabaseURL) {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		client, err := database.NewMongo(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st, err := store.NewMongoStore(ctx, client, cfg.MongoDatabase)
		if err != nil {
			client.Disconnect(context.Background())
			return nil, err
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("Using MongoDB store")
		return st, nil
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	log.Info().Str("path", cfg.DatabaseURL).Msg("Using SQLite store")
	return store.NewSQLiteStore(db), nil
}
