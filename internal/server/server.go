package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/menureel/menureel/internal/auth"
	"github.com/menureel/menureel/internal/docs"
	"github.com/menureel/menureel/internal/feed"
	"github.com/menureel/menureel/internal/menu"
	"github.com/menureel/menureel/internal/ratelimit"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type MenuLoader interface {
	Load(ctx context.Context) (menu.Menu, error)
	LoadGrouped(ctx context.Context) ([]menu.CategoryGroup, error)
	LoadAsync(ctx context.Context) <-chan menu.LoadState
	HasVideo(ctx context.Context, path string) (bool, error)
}

// CountryResolver maps a client address to an ISO country code, or "".
type CountryResolver interface {
	Country(addr string) string
}

type Config struct {
	Pinger          Pinger
	Geo             CountryResolver
	Menu            MenuLoader
	URLs            feed.URLSource
	Prefetcher      feed.Prefetcher
	Feed            feed.Config
	SessionSecret   string
	BaseURL         string
	StorageEndpoint string
	EnableDocs      bool
	Logger          *slog.Logger
}

type Server struct {
	router      chi.Router
	cfg         Config
	logger      *slog.Logger
	authHandler *auth.Handler
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Feed == (feed.Config{}) {
		cfg.Feed = feed.DefaultConfig()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(slogMiddleware)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:         cfg.BaseURL,
		StorageEndpoint: cfg.StorageEndpoint,
	}))

	s := &Server{router: r, cfg: cfg, logger: logger}
	if cfg.SessionSecret != "" {
		s.authHandler = auth.NewHandler(cfg.SessionSecret)
	}

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	if s.cfg.EnableDocs {
		s.router.Mount(docs.MountPath, docs.New("MenuReel API Reference").Routes())
	}

	if s.cfg.Menu != nil {
		menuLimiter := ratelimit.NewLimiter(5, 20)
		s.router.Route("/api/menu", func(r chi.Router) {
			r.Use(menuLimiter.Middleware)
			r.Get("/", s.handleMenu)
			r.Get("/items", s.handleMenuItems)
		})
	}

	// Refresh mints signatures, so it needs a feed session and only signs
	// videos that are on the menu.
	if s.cfg.URLs != nil && s.cfg.Menu != nil && s.authHandler != nil {
		refreshLimiter := ratelimit.NewLimiter(2, 10)
		s.router.With(refreshLimiter.Middleware, s.authHandler.Middleware).Post("/api/videos/refresh", s.handleRefreshVideo)
	}

	if s.authHandler != nil && s.cfg.Menu != nil {
		sessionLimiter := ratelimit.NewLimiter(0.5, 5)
		s.router.Route("/api/feed", func(r chi.Router) {
			r.With(sessionLimiter.Middleware).Post("/sessions", s.authHandler.CreateSession)
			r.With(s.authHandler.Middleware).Get("/ws", s.handleFeedSocket)
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.cfg.Pinger != nil {
		if err := s.cfg.Pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
