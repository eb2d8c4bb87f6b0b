// Package http exposes the advisory service's REST API: user registration,
// on-demand risk checks and call triggers, call-log retrieval and a few
// operator debug endpoints.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sabihealth/advisory-service/internal/config"
	"github.com/sabihealth/advisory-service/internal/domain"
	"github.com/sabihealth/advisory-service/internal/pipeline"
	"github.com/sabihealth/advisory-service/internal/store"
)

// Deps bundles everything the API serves from.
type Deps struct {
	Users        *store.Users
	Orchestrator *pipeline.Orchestrator
	Resolver     domain.CoordinateResolver
	Rainfall     domain.RainfallSource
	Classifier   *domain.Classifier
	Logger       *slog.Logger
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg    *config.Config
	deps   Deps
	engine *gin.Engine
}

// New constructs a server with routes and middleware.
func New(cfg *config.Config, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	server := &Server{cfg: cfg, deps: deps, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until the context is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.deps.Logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Sabi Health API is running"})
	})
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/readyz", s.handleReadyz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.POST("/register", s.handleRegister)
	s.engine.GET("/users", s.handleListUsers)
	s.engine.GET("/risk-check/:user_id", s.handleRiskCheck)
	s.engine.POST("/call-user/:user_id", s.handleCallUser)
	s.engine.POST("/respond/:call_id", s.handleRespond)
	s.engine.GET("/logs", s.handleListLogs)
	s.engine.GET("/health-centers/:lga", s.handleHealthCenter)

	s.engine.GET("/debug/coordinates", s.handleDebugCoordinates)
	s.engine.GET("/debug/rainfall", s.handleDebugRainfall)
	s.engine.GET("/debug/risk", s.handleDebugRisk)

	s.engine.Static("/audio", s.cfg.AudioDir)
}

// handleReadyz reports ready once the audio directory is writable, which is
// the only local resource synthesis depends on.
func (s *Server) handleReadyz(c *gin.Context) {
	if err := os.MkdirAll(s.cfg.AudioDir, 0o755); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
