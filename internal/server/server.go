// Package server exposes the simulation engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wudi/paysim/internal/config"
	"github.com/wudi/paysim/internal/engine"
	"github.com/wudi/paysim/internal/httperr"
	"github.com/wudi/paysim/internal/logging"
	"github.com/wudi/paysim/internal/middleware"
)

// Server wires the engine's HTTP surface: the payment endpoint plus the
// observability and control endpoints.
type Server struct {
	cfg       *config.Config
	engine    *engine.Engine
	version   string
	buildTime string
	startTime time.Time

	httpServer *http.Server
}

// New creates a server for the given engine.
func New(cfg *config.Config, eng *engine.Engine, version, buildTime string) *Server {
	s := &Server{
		cfg:       cfg,
		engine:    eng,
		version:   version,
		buildTime: buildTime,
		startTime: time.Now(),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ListenPort),
		Handler:      s.Handler(),
		ReadTimeout: 10 * time.Second,
		// Must outlast the longest simulated stall plus headroom.
		WriteTimeout: cfg.TimeoutDelay() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler builds the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()

	router.POST("/pay", s.handlePay)
	router.GET("/health", s.handleHealth)
	router.GET("/metrics", s.handleMetrics)
	router.GET("/config", s.handleConfig)
	router.POST("/reset", s.handleReset)
	router.GET("/version", s.handleVersion)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(s.engine.PrometheusCollector())
	router.Handler(http.MethodGet, "/metrics/prom",
		promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httperr.ErrNotFound.WriteJSON(w)
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httperr.ErrMethodNotAllowed.WriteJSON(w)
	})

	chain := middleware.NewChain(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.AccessLog(),
	)
	return chain.Then(router)
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, then shuts
// down gracefully. In-flight simulated delays run to completion within the
// shutdown grace period.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Info("listening",
			zap.String("addr", s.httpServer.Addr),
			zap.String("provider_id", s.cfg.ProviderID),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logging.Info("shutting down gracefully")

		grace := s.cfg.TimeoutDelay() + 10*time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logging.Info("server shutdown complete")
	return nil
}
