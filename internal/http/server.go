// Package http arma el router y el ciclo de vida del servidor.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/fabula/internal/http/handlers"
	"github.com/dropDatabas3/fabula/internal/http/middlewares"
	"github.com/dropDatabas3/fabula/internal/observability/logger"
	"github.com/dropDatabas3/fabula/internal/rate"
)

type Config struct {
	Addr               string
	CORSAllowedOrigins []string
}

// Deps son las dependencias ya construidas que el server expone.
type Deps struct {
	Token    *handlers.TokenHandler
	Content  *handlers.ContentHandler
	Health   *handlers.HealthHandler
	Limiter  rate.Limiter
	Registry *prometheus.Registry
}

type Server struct {
	srv    *http.Server
	router chi.Router
}

func NewServer(cfg Config, deps Deps) *Server {
	r := chi.NewRouter()

	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	registerHTTPMetrics(deps.Registry)

	r.Use(middlewares.RequestID)
	r.Use(middlewares.Logging)
	r.Use(middlewares.Recover)
	r.Use(middlewares.CORS(cfg.CORSAllowedOrigins))
	r.Use(metricsMiddleware(chiRoutePattern))

	// Liveness/readiness fuera de todo rate limit.
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", MetricsHandler(deps.Registry))

	limiter := deps.Limiter
	if limiter == nil {
		limiter = rate.Noop{}
	}

	r.Route("/v1", func(r chi.Router) {
		// El intercambio de tokens es el único endpoint expuesto a clientes
		// no autenticados: va con rate limit por IP.
		r.With(middlewares.RateLimit(limiter, "token")).
			Post("/auth/{provider}/token", deps.Token.Exchange)

		r.Route("/accounts/{accountID}", func(r chi.Router) {
			r.Post("/stories", deps.Content.CreateStory)
			r.Get("/stories", deps.Content.ListStories)
			r.Post("/achievements", deps.Content.CreateAchievement)
			r.Get("/notifications", deps.Content.ListNotifications)
			r.Put("/children/{childID}", deps.Content.UpsertChild)
			r.Get("/children", deps.Content.ListChildren)
		})
	})

	return &Server{
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		router: r,
	}
}

// Handler expone el router (tests).
func (s *Server) Handler() http.Handler { return s.router }

// Start bloquea sirviendo hasta que el listener se cierre.
func (s *Server) Start() error {
	logger.L().Info("http server listening", logger.String("addr", s.srv.Addr))
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drena conexiones en curso hasta que el contexto expire.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// chiRoutePattern devuelve el patrón de ruta registrado (p.ej.
// /v1/auth/{provider}/token) para etiquetar métricas sin cardinalidad
// explosiva.
func chiRoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
