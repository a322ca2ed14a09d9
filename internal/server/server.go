package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/simp/internal/auth"
	"github.com/dukerupert/simp/internal/dashboard"
	"github.com/dukerupert/simp/internal/handler"
	"github.com/dukerupert/simp/internal/middleware"
	"github.com/dukerupert/simp/internal/store"
	ws "github.com/dukerupert/simp/internal/websocket"
)

const (
	signupLimit   = 5
	signupWindow  = time.Hour
	signupMessage = "Too many account creation attempts, please try again after an hour."

	loginLimit   = 4
	loginWindow  = 15 * time.Minute
	loginMessage = "Too many failed login attempts, please try again after 15 minutes."
)

// Config carries the parts of the application config the router needs.
type Config struct {
	Tokens       *auth.TokenManager
	CORSOrigin   string
	CookieSecure bool
	Location     *time.Location
	// TrustProxyHeaders lets the rate limiter key on forwarding headers.
	TrustProxyHeaders bool
	// Registry receives the HTTP and websocket metrics and backs /metrics.
	// A fresh registry is used when nil.
	Registry *prometheus.Registry
}

type Server struct {
	db              *sql.DB
	hub             *ws.Hub
	authH           *handler.AuthHandler
	scheduleH       *handler.ScheduleHandler
	dashboardH      *handler.DashboardHandler
	lookupH         *handler.LookupHandler
	tokens          *auth.TokenManager
	revocationStore *store.RevocationStore
	rateLimiter     *middleware.RateLimiter
	metrics         *middleware.Metrics
	registry        *prometheus.Registry
	corsOrigin      string
	trustProxy      bool
	logger          *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	hub := ws.NewHub(logger.With("component", "websocket"))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "simp",
		Name:      "websocket_clients",
		Help:      "Open websocket connections.",
	}, func() float64 { return float64(hub.ClientCount()) }))

	personStore := store.NewPersonStore(db)
	lookupStore := store.NewLookupStore(db)
	revocationStore := store.NewRevocationStore(db)
	scheduleStore := store.NewScheduleStore(db)

	handlerLogger := logger.With("component", "handler")

	return &Server{
		db:              db,
		hub:             hub,
		authH:           handler.NewAuthHandler(personStore, lookupStore, revocationStore, cfg.Tokens, cfg.CookieSecure, handlerLogger),
		scheduleH:       handler.NewScheduleHandler(scheduleStore, hub, loc, handlerLogger),
		dashboardH:      handler.NewDashboardHandler(dashboard.New(scheduleStore), loc, handlerLogger),
		lookupH:         handler.NewLookupHandler(lookupStore, handlerLogger),
		tokens:          cfg.Tokens,
		revocationStore: revocationStore,
		rateLimiter:     middleware.NewRateLimiter(),
		metrics:         middleware.NewMetrics(reg),
		registry:        reg,
		corsOrigin:      cfg.CORSOrigin,
		trustProxy:      cfg.TrustProxyHeaders,
		logger:          logger,
	}
}

// RateLimiter returns the rate limiter for periodic cleanup.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// RevocationStore returns the revoked token store for periodic purging.
func (s *Server) RevocationStore() *store.RevocationStore {
	return s.revocationStore
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public routes (no auth required)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /categories", s.lookupH.Categories)
	mux.HandleFunc("GET /roles", s.lookupH.Roles)
	mux.Handle("POST /auth/signup", s.rateLimited("signup", signupLimit, signupWindow, signupMessage, s.authH.Signup))
	mux.Handle("POST /auth/login", s.rateLimited("login", loginLimit, loginWindow, loginMessage, s.authH.Login))

	s.registerProtectedRoutes(mux)

	var h http.Handler = s.metrics.Middleware(mux)
	h = middleware.CORS(s.corsOrigin)(h)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(bucket string, limit int, window time.Duration, message string, h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.ByIP(bucket, s.trustProxy), limit, window, message)(h)
}

// registerProtectedRoutes wraps each route separately so the mux still
// records the matched pattern for metrics.
func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	protect := middleware.RequireAuth(s.tokens, s.revocationStore, s.logger.With("component", "auth"))
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protect(h))
	}

	handle("GET /auth/me", s.authH.Me)
	handle("POST /auth/logout", s.authH.Logout)

	handle("POST /api/schedules", s.scheduleH.Create)
	handle("GET /api/schedules/user", s.scheduleH.ListForUser)
	handle("GET /api/schedules/{id}", s.scheduleH.Get)
	handle("DELETE /api/schedules/{id}", s.scheduleH.Delete)

	handle("GET /dashboard", s.dashboardH.Get)

	handle("GET /ws", ws.HandleWebSocket(s.hub, originPatterns(s.corsOrigin), s.logger.With("component", "websocket")))
}

// originPatterns turns the CORS origin into the host pattern the websocket
// origin check expects.
func originPatterns(origin string) []string {
	switch origin {
	case "":
		return nil
	case "*":
		return []string{"*"}
	}
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		return []string{u.Host}
	}
	return []string{origin}
}
