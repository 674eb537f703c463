// Package server provides the HTTP surface of the memora service: route
// registration, request middleware, and graceful lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP listener and its routes.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// New builds the gin engine, registers middleware and routes, and returns a
// Server listening on addr once Run is called.
func New(addr string, h *Handlers, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "http_server")

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(RequestID(), Logger(log), Recovery(log))

	registerRoutes(engine, h)

	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: engine,
		},
		log: log,
	}
}

func registerRoutes(engine *gin.Engine, h *Handlers) {
	engine.GET("/health", h.Health)

	engine.POST("/upload", h.Upload)
	engine.GET("/profile/:id", h.GetProfile)
	engine.GET("/profiles", h.ListProfiles)
	engine.POST("/chat/:id", h.Chat)
	engine.GET("/chat/:id/history", h.ChatHistory)
}

// Handler exposes the underlying HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the listener and blocks until ctx is cancelled or the listener
// fails. On cancellation the server is shut down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.log.Info("Shutting down HTTP server")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}
