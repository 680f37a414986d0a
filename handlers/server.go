package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schoollicense.app/renewal/internal/config"
	"schoollicense.app/renewal/internal/logger"
	"schoollicense.app/renewal/internal/ratelimit"
	"schoollicense.app/renewal/internal/renewal"
	"schoollicense.app/renewal/storage"
)

// MaxBodyBytes caps every trigger payload.
const MaxBodyBytes = int64(65536)

type Server struct {
	Mux     chi.Router
	Storage storage.Store
	Service *renewal.Service
	Config  *config.Config
	limiter ratelimit.RateLimit
}

func NewHttpServer(cfg *config.Config, st storage.Store, svc *renewal.Service) *Server {
	mux := chi.NewRouter()

	s := &Server{
		Mux:     mux,
		Storage: st,
		Service: svc,
		Config:  cfg,
	}
	// A zero limit turns manual rate limiting off.
	if cfg.ManualRateLimit > 0 {
		s.limiter = ratelimit.New(cfg.ManualRateLimit, cfg.ManualRateWindow)
	}

	mux.Use(requestID)
	if cfg.TrustProxyHeaders {
		mux.Use(middleware.RealIP)
	}
	mux.Use(requestLogger)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, "Not found")
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	mux.Get("/health", s.Health)
	mux.Method(http.MethodGet, "/metrics", promhttp.Handler())

	mux.Post("/", s.Renew)
	mux.Route("/api/v1", func(r chi.Router) {
		r.Post("/renewals", s.Renew)
		r.Post("/webhooks/stripe", s.Stripe)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Mux.ServeHTTP(w, r)
}

// PruneLimiter drops idle rate limit clients every interval until ctx is done.
func (s *Server) PruneLimiter(ctx context.Context, interval time.Duration) {
	if s.limiter == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.limiter.Prune(); removed > 0 {
				logger.Debug("Pruned idle rate limit clients", map[string]interface{}{"removed": removed})
			}
		}
	}
}

// HTTPServer wraps the router with the timeouts used in production.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
