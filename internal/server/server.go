// Package server exposes the analysis pipeline, history store and report
// renderers over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mediscan-ai/mediscan/internal/analysis"
	"github.com/mediscan-ai/mediscan/internal/classifier"
	"github.com/mediscan-ai/mediscan/internal/history"
)

// Version is reported by the root and health endpoints.
const Version = "1.0.0"

// Server wires the HTTP routes to the application components.
type Server struct {
	pipeline  *analysis.Pipeline
	models    *classifier.Manager
	store     *history.Store
	exportDir string
	log       *logrus.Logger

	router *gin.Engine
	server *http.Server
}

// New creates the HTTP server. debug switches Gin into debug mode.
func New(pipeline *analysis.Pipeline, models *classifier.Manager, store *history.Store, exportDir string, log *logrus.Logger, debug bool) *Server {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logrus.New()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	s := &Server{
		pipeline:  pipeline,
		models:    models,
		store:     store,
		exportDir: exportDir,
		log:       log,
		router:    router,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	s.log.WithField("addr", addr).Info("http server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleRoot)
	s.router.GET("/health", s.handleHealth)

	s.router.POST("/analyze", s.handleAnalyze)
	s.router.POST("/analyze/batch", s.handleAnalyzeBatch)

	s.router.GET("/history", s.handleHistoryList)
	s.router.DELETE("/history/:id", s.handleHistoryDelete)

	s.router.POST("/export", s.handleExport)

	s.router.GET("/models/info", s.handleModelsInfo)
	s.router.POST("/models/reload", s.handleModelsReload)
}

// corsMiddleware adds permissive CORS headers; the browser UI is served from a
// different origin in development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
