package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/serrynah/music-bites/internal/collection"
	"github.com/serrynah/music-bites/internal/config"
	"github.com/serrynah/music-bites/internal/enrich"
	"github.com/serrynah/music-bites/internal/media"
	"github.com/serrynah/music-bites/internal/playback"
	"github.com/serrynah/music-bites/internal/server"
	"github.com/serrynah/music-bites/internal/store"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := "./config.toml"

	// Initialize basic logger for startup
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}

	configureLogger(logger, cfg)

	// Open the on-device store; it is always present, even in remote mode,
	// so a demotion has somewhere to land.
	local, err := store.OpenLocal(cfg.Storage.Path, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error opening local storage")
	}
	defer local.Close()

	// The remote store is only dialed lazily; configuration presence alone
	// decides the starting mode.
	var remote store.Store
	if cfg.RemoteConfigured() {
		remoteStore, err := store.OpenRemote(cfg.Remote.Endpoint, cfg.Remote.Credential, logger)
		if err != nil {
			logger.WithError(err).Warn("Remote store not usable, starting with local storage")
		} else {
			if err := remoteStore.EnsureSchema(); err != nil {
				logger.WithError(err).Warn("Could not ensure remote schema; first read will decide the storage mode")
			}
			remote = remoteStore
			defer remoteStore.Close()
		}
	} else {
		logger.Info("No remote store configured, using local storage")
	}

	router := store.NewRouter(remote, local, logger)

	registry, err := media.NewRegistry(logger)
	if err != nil {
		logger.WithError(err).Fatal("Error creating upload registry")
	}
	defer registry.Close()

	coordinator := playback.NewCoordinator()
	enricher := enrich.NewEnricher(logger)

	ctrl := collection.NewController(router, coordinator, registry, enricher, logger)
	defer ctrl.Close()

	// Populate the collection; a dead remote demotes here and the local
	// copy takes over.
	if err := ctrl.Load(); err != nil {
		logger.WithError(err).Fatal("Error loading snippet collection")
	}

	snippetServer, err := server.NewSnippetServer(cfg, logger, ctrl, router, coordinator, registry, enricher)
	if err != nil {
		logger.WithError(err).Fatal("Error creating snippet server")
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Start the server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- snippetServer.Start()
	}()

	select {
	case <-c:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		if err != nil {
			logger.WithError(err).Fatal("Server failed")
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := snippetServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Error during shutdown")
	}
}

// configureLogger applies the configured level and format.
func configureLogger(logger *logrus.Logger, cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}
