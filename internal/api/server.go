package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/quantfolio/quantfolio/internal/api/handler"
	"github.com/quantfolio/quantfolio/internal/api/job"
	"github.com/quantfolio/quantfolio/internal/api/middleware"
	"github.com/quantfolio/quantfolio/internal/collector"
	"github.com/quantfolio/quantfolio/internal/config"
	"github.com/quantfolio/quantfolio/internal/metrics"
	"github.com/quantfolio/quantfolio/internal/storage/archive"
	"github.com/quantfolio/quantfolio/internal/storage/signal"
	"github.com/quantfolio/quantfolio/internal/strategy"
)

// Deps bundles everything the server's handlers need.
type Deps struct {
	Signals    signal.Store
	Jobs       *job.Store
	Provider   collector.Provider
	Engine     *strategy.Engine
	Strategies *strategy.Registry
	Archive    *archive.Results // may be nil
	Metrics    *metrics.Registry
	Logger     *zap.Logger
}

// Server is the quantfolio HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer wires the routes and middleware.
func NewServer(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	signals := handler.NewSignalsHandler(
		deps.Signals, deps.Provider, deps.Engine, deps.Strategies,
		deps.Metrics, logger, cfg.Backtest.LookbackDays)
	backtests := handler.NewBacktestHandler(
		deps.Jobs, deps.Provider, deps.Strategies, deps.Archive,
		deps.Metrics, logger, cfg.Backtest)
	strategies := handler.NewStrategiesHandler(deps.Strategies)
	recommend := handler.NewRecommendHandler()

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/v1/signals", signals.Generate)
	apiMux.HandleFunc("GET /api/v1/signals", signals.List)
	apiMux.HandleFunc("GET /api/v1/signals/{id}", signals.GetByID)
	apiMux.HandleFunc("POST /api/v1/backtests", backtests.Create)
	apiMux.HandleFunc("GET /api/v1/backtests", backtests.List)
	apiMux.HandleFunc("GET /api/v1/backtests/{id}", backtests.Get)
	apiMux.HandleFunc("GET /api/v1/strategies", strategies.List)
	apiMux.HandleFunc("GET /api/v1/strategies/{name}", strategies.Get)
	apiMux.HandleFunc("POST /api/v1/recommend", recommend.Recommend)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", middleware.APIKeyAuth(cfg.Server.APIKey)(apiMux))
	mux.HandleFunc("GET /healthz", handleHealth)
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path,
			promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      metrics.HTTPMiddleware(deps.Metrics)(mux),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Handler exposes the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
