// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: it opens the database, picks the
// session store, builds the services and handlers, and decides which
// middleware guards which route. Nothing else in the module constructs
// dependencies.
//
// DEPENDENCY FLOW:
//
//	config.Config
//	  → sqlite.DB (migrations run on open)
//	  → session.Store (memory or redis)
//	  → auth.Sessions (signed cookie ↔ store)
//	  → services → handlers → routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/hometender/internal/auth"
	"github.com/sakif/hometender/internal/config"
	"github.com/sakif/hometender/internal/handler"
	"github.com/sakif/hometender/internal/middleware"
	sqliteRepo "github.com/sakif/hometender/internal/repository/sqlite"
	"github.com/sakif/hometender/internal/service"
	"github.com/sakif/hometender/internal/session"
	"github.com/sakif/hometender/internal/validation"
)

// Server owns every long-lived resource: the database, the session store
// and the login rate limiter. Close releases them.
type Server struct {
	router   *chi.Mux
	config   config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	sessions session.Store
	limiter  *middleware.RateLimiter
}

// New opens the database and session store and wires all routes. On error
// everything opened so far is closed again.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store, err := newSessionStore(cfg.Session, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		sessions: store,
		limiter:  middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 10*time.Minute, logger),
	}

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func newSessionStore(cfg config.SessionConfig, logger *slog.Logger) (session.Store, error) {
	switch cfg.Store {
	case config.StoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store, err := session.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreMemory, "":
		store, err := session.NewMemoryStore(cfg.TTL, cfg.SweepSpec, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown session store %q", cfg.Store)
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTES:
//
//	GET    /healthz                  → database ping
//	GET    /metrics                  → Prometheus
//	POST   /api/members              → join
//	POST   /api/members/login        → login (rate limited)
//	POST   /api/members/logout       → logout            [optional session]
//	DELETE /api/members/{loginId}    → withdraw          [optional session]
//	GET    /api/members/me           → current member    [session]
//	*      /api/ingredient[/{id}]    → ingredient CRUD   [session]
//	*      /api/recipe[/{id}]        → recipe CRUD       [session]
//
// MIDDLEWARE ORDER:
// RequestID first so the logger can print it, RealIP (only with
// server.trust_proxy) before the rate limiter keys on the client address,
// Recoverer innermost of the globals so a panic still produces a logged 500.
func (s *Server) setupRoutes() error {
	metrics := middleware.NewMetrics()

	s.router.Use(chimiddleware.RequestID)
	if s.config.Server.TrustProxy {
		s.router.Use(chimiddleware.RealIP)
	}
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.Session.Secret, s.config.Session.TokenLifetime)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	sessions := auth.NewSessions(tokens, s.sessions, s.config.Session.CookieName, s.config.Session.Secure, s.logger)
	v := validation.New()

	members := handler.NewMemberHandler(
		service.NewMemberService(s.db, s.sessions, auth.NewPasswordService(), s.logger),
		sessions, v, s.logger,
	)
	ingredients := handler.NewIngredientHandler(service.NewIngredientService(s.db, s.logger), v, s.logger)
	recipes := handler.NewRecipeHandler(service.NewRecipeService(s.db, s.logger), v, s.logger)
	health := handler.NewHealthHandler(s.db, s.logger)

	s.router.Get("/healthz", health.HandleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/members", members.HandleJoin)

		r.Group(func(r chi.Router) {
			r.Use(sessions.Optional)
			r.With(s.limiter.Handler).Post("/members/login", members.HandleLogin)
			r.Post("/members/logout", members.HandleLogout)
			r.Delete("/members/{loginId}", members.HandleWithdraw)
		})

		r.Group(func(r chi.Router) {
			r.Use(sessions.Require)

			r.Get("/members/me", members.HandleMe)

			r.Route("/ingredient", func(r chi.Router) {
				r.Post("/", ingredients.HandlePost)
				r.Get("/", ingredients.HandleList)
				r.Get("/{id}", ingredients.HandleGet)
				r.Put("/{id}", ingredients.HandlePut)
				r.Delete("/{id}", ingredients.HandleDelete)
			})

			r.Route("/recipe", func(r chi.Router) {
				r.Post("/", recipes.HandlePost)
				r.Get("/", recipes.HandleList)
				r.Get("/{id}", recipes.HandleGet)
				r.Put("/{id}", recipes.HandlePut)
				r.Delete("/{id}", recipes.HandleDelete)
			})
		})
	})

	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the rate limiter, the session store and the database, in
// that order, and returns the first error.
func (s *Server) Close() error {
	s.limiter.Close()
	return errors.Join(s.sessions.Close(), s.db.Close())
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to the configured shutdown timeout and closes every resource.
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("database", s.config.Database.Path),
			slog.String("session_store", s.config.Session.Store),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
