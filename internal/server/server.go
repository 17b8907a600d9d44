// Package server provides the HTTP server and routing for the trading journal.
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

	"condorledger/internal/config"
	"condorledger/internal/database"
	"condorledger/internal/modules/auth"
	authhandlers "condorledger/internal/modules/auth/handlers"
	"condorledger/internal/modules/ledger"
	ledgerhandlers "condorledger/internal/modules/ledger/handlers"
	"condorledger/internal/modules/matrix"
	matrixhandlers "condorledger/internal/modules/matrix/handlers"
)

// Config holds server configuration
type Config struct {
	Log        zerolog.Logger
	LedgerDB   *database.DB
	SessionsDB *database.DB
	Config     *config.Config

	LedgerService *ledger.Service
	AuthService   *auth.Service
	MatrixEngine  *matrix.Engine
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	ledgerDB       *database.DB
	sessionsDB     *database.DB
	cfg            *config.Config
	ledgerService  *ledger.Service
	authService    *auth.Service
	matrixEngine   *matrix.Engine
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		log:           cfg.Log.With().Str("component", "server").Logger(),
		ledgerDB:      cfg.LedgerDB,
		sessionsDB:    cfg.SessionsDB,
		cfg:           cfg.Config,
		ledgerService: cfg.LedgerService,
		authService:   cfg.AuthService,
		matrixEngine:  cfg.MatrixEngine,
	}
	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.LedgerDB, cfg.SessionsDB)

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Email"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	authHandler := authhandlers.NewAuthHandlers(s.authService, s.log)
	ledgerHandler := ledgerhandlers.NewLedgerHandlers(s.ledgerService, s.log)
	matrixHandler := matrixhandlers.NewMatrixHandlers(s.matrixEngine, matrixhandlers.Defaults{
		Premium:     s.cfg.DefaultPremium,
		Fee:         s.cfg.DefaultFee,
		SpreadWidth: s.cfg.SpreadWidth,
	}, s.log)

	s.router.Route("/api", func(r chi.Router) {
		// Sign-in endpoints stay outside the session guard
		authHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(s.authService, s.cfg.DevMode, s.log))

			ledgerHandler.RegisterRoutes(r)
			matrixHandler.RegisterRoutes(r)

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
				r.Get("/disk", s.systemHandlers.HandleDiskUsage)
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
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
