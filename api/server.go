// Package api exposes the travel-scout operations over HTTP with gin.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"travel-scout/config"
	"travel-scout/metrics"
	"travel-scout/models"
	"travel-scout/scraper/momondo"
	"travel-scout/services"
	"travel-scout/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// Service is the set of operations the HTTP surface serves
type Service interface {
	Search(ctx context.Context, req services.SearchRequest) ([]models.Listing, error)
	Reviews(ctx context.Context, roomURL string) ([]models.ReviewAnalysis, error)
	Recommend(ctx context.Context, req services.RecommendRequest) (models.Recommendation, error)
	SearchFlight(ctx context.Context, params models.FlightSearchParams) (momondo.Result, error)
	AIFlightSearch(ctx context.Context, query string) (services.FlightOutcome, error)
	IntegratedSearch(ctx context.Context, req services.IntegratedRequest) (services.IntegratedResult, error)
	RecentLookups(ctx context.Context, limit int) ([]models.FlightLookup, error)
}

var _ Service = (*services.Orchestrator)(nil)

// Server owns the gin engine and its http.Server
type Server struct {
	router  *gin.Engine
	server  *http.Server
	service Service
	logger  *utils.Logger
}

// NewServer builds the router with the standard middleware chain and every route.
// gatherer backs /metrics and may be nil to disable it.
func NewServer(cfg config.ServerConfig, svc Service, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *utils.Logger) *Server {
	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.CORSOrigins))
	router.Use(MetricsMiddleware(m))
	router.Use(TimeoutMiddleware(cfg.RequestTimeout))

	s := &Server{
		router:  router,
		service: svc,
		logger:  logger,
		server: &http.Server{
			Addr:              cfg.Address,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.routes(gatherer)
	return s
}

func (s *Server) routes(gatherer prometheus.Gatherer) {
	s.router.GET("/", s.hello)
	s.router.GET("/health", s.health)
	if gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	s.router.GET("/search", s.search)
	s.router.GET("/reviews", s.reviews)
	s.router.GET("/recommend", s.recommend)

	api := s.router.Group("/api")
	api.POST("/search_flights", s.searchFlights)
	api.POST("/ai_flight_search", s.aiFlightSearch)
	api.POST("/integrated_travel_search", s.integratedSearch)
	api.GET("/flight_lookups", s.flightLookups)
}

// Router returns the gin engine, mainly for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return <-errCh
}
