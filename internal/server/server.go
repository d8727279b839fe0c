package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mvillanueva/parokya/internal/config"
	"github.com/mvillanueva/parokya/internal/email"
	"github.com/mvillanueva/parokya/internal/handler"
	"github.com/mvillanueva/parokya/internal/middleware"
	"github.com/mvillanueva/parokya/internal/model"
	"github.com/mvillanueva/parokya/internal/store"
	ws "github.com/mvillanueva/parokya/internal/websocket"
	"github.com/mvillanueva/parokya/internal/workflow"
)

type Server struct {
	db           *sql.DB
	cfg          *config.Config
	hub          *ws.Hub
	bookingH     *handler.BookingHandler
	calendarH    *handler.CalendarEventHandler
	authH        *handler.AuthHandler
	eventStore   *store.EventStore
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	metrics      *middleware.Metrics
	logger       *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, emailClient *email.Client, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	bookingStore := store.NewBookingStore(db)
	eventStore := store.NewEventStore(db)
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)

	wf := workflow.New(bookingStore, eventStore, emailClient, logger.With("component", "workflow"))

	var metrics *middleware.Metrics
	if cfg.Metrics.Enabled {
		metrics = middleware.NewMetrics(cfg.Metrics.Service)
	}

	sessionTTL := time.Duration(cfg.Auth.SessionTTLHours) * time.Hour

	return &Server{
		db:           db,
		cfg:          cfg,
		hub:          hub,
		bookingH:     handler.NewBookingHandler(bookingStore, wf, hub, logger.With("component", "booking")),
		calendarH:    handler.NewCalendarEventHandler(eventStore, hub, cfg.Email.Organization, logger.With("component", "calendar")),
		authH:        handler.NewAuthHandler(userStore, sessionStore, sessionTTL, logger.With("component", "auth")),
		eventStore:   eventStore,
		userStore:    userStore,
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		metrics:      metrics,
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login, 10))
	outerMux.HandleFunc("POST /api/bookings", s.rateLimitedHandler(s.bookingH.Create, 20))
	outerMux.HandleFunc("GET /api/calendar", s.calendarH.List)
	outerMux.HandleFunc("GET /api/calendar/occurrences", s.calendarH.Occurrences)
	outerMux.HandleFunc("GET /api/events", s.calendarH.ListEvents)
	outerMux.HandleFunc("GET /calendar.ics", s.calendarH.Feed)
	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.calendarSnapshot))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	if s.metrics != nil {
		outerMux.Handle("GET "+s.cfg.Metrics.Path, promhttp.Handler())
	}

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	var root http.Handler = outerMux
	if s.metrics != nil {
		root = s.metrics.Collect(root)
	}
	return middleware.RequestLogger(s.logger.With("component", "http"))(root)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	// Admin booking console
	mux.HandleFunc("GET /api/bookings", s.bookingH.List)
	mux.HandleFunc("POST /api/bookings/{id}/accept", s.bookingH.Accept)
	mux.HandleFunc("POST /api/bookings/{id}/decline", s.bookingH.Decline)
	mux.HandleFunc("PUT /api/bookings/{id}", s.bookingH.Update)

	// Admin calendar management
	mux.HandleFunc("POST /api/calendar", s.calendarH.Create)
	mux.HandleFunc("GET /api/calendar/{id}", s.calendarH.Get)
	mux.HandleFunc("PUT /api/calendar/{id}", s.calendarH.Update)
	mux.HandleFunc("DELETE /api/calendar/{id}", s.calendarH.Delete)
}

func (s *Server) calendarSnapshot() ([]model.CalendarEvent, error) {
	return s.eventStore.List()
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc, limit int) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	limited := middleware.RateLimit(s.rateLimiter, keyFunc, limit, time.Minute)(http.HandlerFunc(h))
	return limited.ServeHTTP
}
