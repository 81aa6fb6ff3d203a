package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/metrics"
)

type Server struct {
	*http.Server
	startupTime time.Time
	limiter     *RateLimiter
}

func NewServer(c map[string]string, database database.Database, deps Dependencies) (Server, error) {
	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port) // Bind to 0.0.0.0 for external access

	startupTime := time.Now()
	limiter := newLimiterFromConfig(c)

	router, err := newRouter(database,
		withConfig(c),
		withStartupTime(startupTime),
		withLimiter(limiter),
		withDependencies(deps),
	)
	if err != nil {
		return Server{}, err
	}

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(c, "READ_TIMEOUT_SECONDS", time.Second, 180),
		WriteTimeout: config.GetDuration(c, "WRITE_TIMEOUT_SECONDS", time.Second, 180),
		IdleTimeout:  config.GetDuration(c, "IDLE_TIMEOUT_SECONDS", time.Second, 180),
	}

	return Server{Server: server, startupTime: startupTime, limiter: limiter}, nil
}

func newLimiterFromConfig(c map[string]string) *RateLimiter {
	limiter := NewRateLimiter(
		config.GetInt(c, "RATE_LIMIT_MAX", 5),
		config.GetDuration(c, "RATE_LIMIT_WINDOW_SECONDS", time.Second, 60),
		config.GetList(c, "RATE_LIMIT_PREFIXES", []string{"/api/contact", "/api/chat"}),
	)
	limiter.trustProxy = config.GetBool(c, "TRUST_PROXY", true)
	return limiter
}

type router struct {
	config      map[string]string
	startupTime time.Time
	limiter     *RateLimiter
	deps        Dependencies
}

func withConfig(c map[string]string) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func withLimiter(limiter *RateLimiter) func(*router) {
	return func(r *router) {
		r.limiter = limiter
	}
}

func withDependencies(deps Dependencies) func(*router) {
	return func(r *router) {
		r.deps = deps
	}
}

func newRouter(database database.Database, opts ...func(*router)) (*chi.Mux, error) {
	var router router
	for _, opt := range opts {
		opt(&router)
	}
	if router.limiter == nil {
		router.limiter = newLimiterFromConfig(router.config)
	}
	if router.startupTime.IsZero() {
		router.startupTime = time.Now()
	}

	jwtSecret := config.GetString(router.config, "JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	issuer := newTokenIssuer(jwtSecret, config.GetDuration(router.config, "JWT_TTL_HOURS", time.Hour, 24))

	verifiers := verifierChain{issuer}
	if router.deps.Federated != nil {
		verifiers = append(verifiers, router.deps.Federated)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(metrics.InstrumentHandler)
	chiRouter.Use(RequestLogger(log.With().Str("component", "http").Logger()))

	acceptedOrigins := config.GetList(router.config, "ACCEPTED_ORIGINS", nil)
	chiRouter.Use(CORSCheckMiddleware(acceptedOrigins))
	chiRouter.Use(corsMiddleware(acceptedOrigins))
	chiRouter.Use(router.limiter.Middleware)

	handlers := initializeHandlers(database, router, issuer)
	authMiddleware := newAuthMiddleware(verifiers)

	secureCookies := config.GetBool(router.config, "COOKIE_SECURE", true)
	sessionSecret := config.GetString(router.config, "SESSION_SECRET", jwtSecret)
	visitors := newVisitorTracker(sessionSecret, secureCookies)

	setupRoutes(chiRouter, handlers, authMiddleware, visitors)

	return chiRouter, nil
}

func (s Server) Start(errChannel chan<- error) {
	ctx, cancel := context.WithCancel(context.Background())
	s.RegisterOnShutdown(cancel)
	s.limiter.StartJanitor(ctx)

	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
