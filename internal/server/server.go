// Package server provides the HTTP server and routing for the dashboard.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"cryptodeck/internal/config"
	"cryptodeck/internal/di"
	chartshandlers "cryptodeck/internal/modules/charts/handlers"
	portfoliohandlers "cryptodeck/internal/modules/portfolio/handlers"
	predictionhandlers "cryptodeck/internal/modules/prediction/handlers"
	sentimenthandlers "cryptodeck/internal/modules/sentiment/handlers"
)

// Server is the HTTP front of the application
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
	startedAt      time.Time
}

// New creates a configured HTTP server
func New(cfg *config.Config, container *di.Container, log zerolog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       log.With().Str("component", "server").Logger(),
		cfg:       cfg,
		container: container,
		startedAt: time.Now(),
	}
	s.systemHandlers = NewSystemHandlers(cfg.DataDir, log)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // Transparent retrain can take a while
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.systemHandlers.HandleHealth(s.startedAt))

	s.router.Route("/api", func(r chi.Router) {
		predictionhandlers.NewHandler(
			s.container.PredictionService,
			s.container.MarketData,
			s.log,
		).RegisterRoutes(r)

		portfoliohandlers.NewHandler(s.container.PortfolioService, s.log).RegisterRoutes(r)

		sentimenthandlers.NewHandler(
			s.container.SentimentService,
			s.container.PortfolioService.HeldAssets,
			s.log,
		).RegisterRoutes(r)

		chartshandlers.NewHandler(s.container.ChartsService, s.log).RegisterRoutes(r)

		r.Get("/system/info", s.systemHandlers.HandleSystemInfo)
	})
}

// Router exposes the mux, mainly for tests
func (s *Server) Router() chi.Router {
	return s.router
}

// Start blocks serving HTTP until Shutdown or failure
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("HTTP server listening")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
