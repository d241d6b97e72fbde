package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/listarr/internal/api/handlers"
	"github.com/amaumene/listarr/internal/api/middleware"
	"github.com/amaumene/listarr/internal/config"
	"github.com/amaumene/listarr/internal/controllers"
	"github.com/amaumene/listarr/internal/models"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server    *http.Server
	db        *models.Database
	processor *controllers.Processor
	reloader  handlers.SchedulerReloader
	logger    *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, db *models.Database, processor *controllers.Processor, reloader handlers.SchedulerReloader, logger *logrus.Logger) *Server {
	s := &Server{
		db:        db,
		processor: processor,
		reloader:  reloader,
		logger:    logger,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // manual triggers run the pipeline inline
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	healthHandler := handlers.NewHealthHandler(s.logger)
	mux.HandleFunc("GET /health", healthHandler.ServeHTTP)

	statusHandler := handlers.NewStatusHandler(s.db, s.logger)
	mux.HandleFunc("GET /status", statusHandler.ServeHTTP)

	executionsHandler := handlers.NewExecutionsHandler(s.db, s.logger)
	mux.HandleFunc("GET /api/executions", executionsHandler.ServeHTTP)

	processHandler := handlers.NewProcessHandler(s.processor, s.logger)
	mux.HandleFunc("POST /api/process", processHandler.ProcessBatch)
	mux.HandleFunc("POST /api/process/lists/{id}", processHandler.ProcessList)

	listsHandler := handlers.NewListsHandler(s.db, s.reloader, s.logger)
	mux.HandleFunc("GET /api/lists", listsHandler.List)
	mux.HandleFunc("POST /api/lists", listsHandler.Create)
	mux.HandleFunc("DELETE /api/lists/{id}", listsHandler.Delete)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
