// Package server assembles the HTTP surface of the capacities service.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/terminal-bench/capacities/internal/config"
	"github.com/terminal-bench/capacities/internal/handlers"
	"github.com/terminal-bench/capacities/internal/middleware"
	"github.com/terminal-bench/capacities/internal/repository"
	"github.com/terminal-bench/capacities/internal/validation"
)

// Server serves the capacities API
type Server struct {
	cfg     *config.Config
	log     logrus.FieldLogger
	limiter *middleware.RateLimiter
	metrics *middleware.Metrics
	router  *gin.Engine
}

// New wires handlers and middleware around repo
func New(cfg *config.Config, repo *repository.CapacityRepository, log logrus.FieldLogger) *Server {
	s := &Server{
		cfg:     cfg,
		log:     log,
		metrics: middleware.NewMetrics(repo.Count),
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	s.router = s.setupRouter(repo)
	return s
}

func (s *Server) setupRouter(repo *repository.CapacityRepository) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(s.log))
	router.Use(middleware.Logger(s.log))
	router.Use(s.metrics.Instrument())
	router.Use(middleware.CORS(s.cfg.AllowedOrigins))
	router.Use(middleware.RateLimit(s.limiter, s.log))

	// Operational routes
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	capacityHandler := handlers.NewCapacityHandler(repo, validation.New(), s.log)
	capacities := router.Group("/capacities")
	{
		capacities.GET("", capacityHandler.List)
		capacities.POST("", capacityHandler.Create)
		capacities.GET("/:"+handlers.IDParam, capacityHandler.Get)
		capacities.PUT("/:"+handlers.IDParam, capacityHandler.Replace)
		capacities.DELETE("/:"+handlers.IDParam, capacityHandler.Delete)
	}

	return router
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if s.limiter != nil {
		s.limiter.StartCleanup(gctx, 10*time.Minute)
	}

	g.Go(func() error {
		s.log.WithField("addr", addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
