package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"platinum/internal/auth"
	applog "platinum/internal/log"
	"platinum/internal/metrics"
	"platinum/internal/middleware/ratelimit"
	"platinum/internal/middleware/security"
	"platinum/internal/middleware/trace"
	"platinum/internal/refresh"
	appweb "platinum/web"
)

// Options wires the server's collaborators.
type Options struct {
	Addr               string
	Refresh            *refresh.Service
	Auth               *auth.Authenticator
	Metrics            *metrics.Metrics
	Logger             *applog.Logger
	LoginRatePerMinute int
	TrustedProxies     []string

	// Ready reports whether the warehouse is reachable. Nil means ready.
	Ready func(context.Context) error

	// Now is the clock for refresh requests. Defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	templates *template.Template
	refresh   *refresh.Service
	auth      *auth.Authenticator
	metrics   *metrics.Metrics
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	logger    *applog.Logger
	ready     func(context.Context) error
	now       func() time.Time

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and builds the router.
func NewServer(opts Options) (*Server, error) {
	if opts.Refresh == nil || opts.Auth == nil {
		return nil, fmt.Errorf("refresh service and authenticator are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      90 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		templates: t,
		refresh:   opts.Refresh,
		auth:      opts.Auth,
		metrics:   opts.Metrics,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.LoginRatePerMinute}),
		detector:  detector,
		logger:    logger.WithComponent(applog.ComponentHTTP),
		ready:     opts.Ready,
		now:       now,
	}
	s.Handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(s.logger))

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Handle("/static/*", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", s.metrics.Handler())

	r.Get("/", s.instrument("index", s.handleIndex))

	loginLimit := s.limiter.Middleware(s.detector.ExtractClientIP, s.renderRateLimited, http.MethodPost)
	r.Group(func(r chi.Router) {
		r.Use(security.NoStore)
		r.With(loginLimit).Get("/login", s.instrument("login", s.handleLoginPage))
		r.With(loginLimit).Post("/login", s.instrument("login", s.handleLogin))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.auth.RequireAuth, s.auth.RequireCSRF, security.NoStore)
		r.Post("/logout", s.instrument("logout", s.handleLogout))
		r.Get("/dashboard", s.instrument("dashboard", s.handleDashboard))
		r.Post("/dashboard/refresh", s.instrument("refresh", s.handleRefresh))
		r.Get("/dashboard/chart.json", s.instrument("chart", s.handleChart))
		r.Get("/dashboard/daily.json", s.instrument("daily", s.handleDaily))
	})
	return r
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return s.metrics.WrapHandler(route, h).ServeHTTP
}

// Shutdown stops the login limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
