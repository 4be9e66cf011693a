package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/serrynah/music-bites/internal/collection"
	"github.com/serrynah/music-bites/internal/config"
	"github.com/serrynah/music-bites/internal/enrich"
	"github.com/serrynah/music-bites/internal/media"
	"github.com/serrynah/music-bites/internal/playback"
	"github.com/serrynah/music-bites/internal/store"
	"github.com/serrynah/music-bites/internal/tunnel"

	"github.com/sirupsen/logrus"
)

// SnippetServer exposes the snippet collection over HTTP: the editing API,
// audio upload and streaming, playback state, and storage status.
type SnippetServer struct {
	config      *config.Config
	logger      *logrus.Logger
	collection  *collection.Controller
	router      *store.Router
	coordinator *playback.Coordinator
	registry    *media.Registry
	enricher    *enrich.Enricher

	tunnelService *tunnel.Service
	events        *eventHub
	mux           *http.ServeMux
	httpServer    *http.Server
}

// NewSnippetServer creates a new snippet server instance.
func NewSnippetServer(
	cfg *config.Config,
	logger *logrus.Logger,
	ctrl *collection.Controller,
	router *store.Router,
	coordinator *playback.Coordinator,
	registry *media.Registry,
	enricher *enrich.Enricher,
) (*SnippetServer, error) {
	// Create tunnel service
	tunnelSvc, err := tunnel.NewService(&cfg.Ngrok, logger)
	if err != nil {
		logger.WithError(err).Warn("Ngrok tunnel not available")
		tunnelSvc = nil
	}

	server := &SnippetServer{
		config:        cfg,
		logger:        logger,
		collection:    ctrl,
		router:        router,
		coordinator:   coordinator,
		registry:      registry,
		enricher:      enricher,
		tunnelService: tunnelSvc,
		mux:           http.NewServeMux(),
	}
	server.events = newEventHub(server)

	return server, nil
}

// Start sets up routes and serves until Shutdown is called. It blocks.
func (ss *SnippetServer) Start() error {
	ss.setupRoutes()
	ss.events.start()

	localAddress := fmt.Sprintf("http://%s", ss.config.GetAddress())

	ss.logger.WithFields(logrus.Fields{
		"address":      localAddress,
		"storage_mode": ss.router.Mode(),
		"snippets":     ss.collection.Len(),
	}).Info("Music Bites server starting")

	// Start ngrok tunnel if enabled
	if ss.tunnelService != nil {
		if err := ss.tunnelService.StartTunnel(context.Background(), localAddress); err != nil {
			ss.logger.WithError(err).Warn("Could not start ngrok tunnel")
		}
	}

	handler := ss.panicRecoveryMiddleware(
		ss.corsMiddleware(
			ss.requestLoggingMiddleware(ss.mux),
		),
	)

	ss.httpServer = &http.Server{
		Addr:        ss.config.GetAddress(),
		Handler:     handler,
		ReadTimeout: time.Duration(ss.config.Server.ReadTimeout) * time.Second,
	}

	err := ss.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (ss *SnippetServer) setupRoutes() {
	ss.mux.HandleFunc("/", ss.handleHome)
	ss.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(ss.config.Server.StaticDir))))

	// Snippet collection routes
	ss.mux.HandleFunc("/api/snippets", ss.handleSnippets)
	ss.mux.HandleFunc("/api/snippets/", ss.handleSnippetByID)

	// Upload and streaming routes
	ss.mux.HandleFunc("/api/uploads", ss.handleUploadAudio)
	ss.mux.HandleFunc(media.ServePrefix, ss.handleStreamUpload)

	// Playback state routes
	ss.mux.HandleFunc("/api/playback", ss.handleGetPlaybackState)
	ss.mux.HandleFunc("/api/playback/", ss.handlePlaybackAction)

	ss.mux.HandleFunc("/api/storage/status", ss.handleStorageStatus)
	ss.mux.HandleFunc("/api/events", ss.handleEvents)
	ss.mux.HandleFunc("/api/config", ss.handleGetConfig)
	ss.mux.HandleFunc("/health", ss.handleHealthCheck)
}

// Shutdown gracefully shuts down the snippet server.
func (ss *SnippetServer) Shutdown(ctx context.Context) error {
	ss.logger.Info("Shutting down snippet server...")

	if ss.tunnelService != nil {
		if err := ss.tunnelService.Stop(); err != nil {
			ss.logger.WithError(err).Warn("Failed to stop ngrok tunnel")
		}
	}

	ss.events.stop()

	if ss.httpServer != nil {
		if err := ss.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	ss.logger.Info("Snippet server shutdown complete")
	return nil
}
