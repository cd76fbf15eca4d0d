// Package web provides the HTTP server and handlers for the table manager.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/JonMunkholm/tablekit/internal/core"
	"github.com/JonMunkholm/tablekit/internal/metrics"
	webmw "github.com/JonMunkholm/tablekit/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options configures the server. Zero values disable the matching feature.
type Options struct {
	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration

	// RequestsPerMinute limits every route per client IP; 0 disables it.
	RequestsPerMinute int
	// ImportsPerMinute additionally limits POST /api/import per client IP.
	ImportsPerMinute int
	// MaxImportSize caps the request body of an import.
	MaxImportSize int64

	TrustedProxies []string
	EnableCSP      bool
	APIKeys        []string // Required on /api when non-empty

	Metrics *metrics.Collector // Serves /metrics and instruments requests when set
}

// Server is the HTTP server for one table service.
type Server struct {
	service  *core.Service
	opts     Options
	router   *chi.Mux
	server   *http.Server
	limiters []*rateLimiter
}

// NewServer creates a Server for service.
func NewServer(service *core.Service, opts Options) *Server {
	if opts.MaxImportSize <= 0 {
		opts.MaxImportSize = core.DefaultMaxImportSize
	}
	s := &Server{
		service: service,
		opts:    opts,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(webmw.TrustedRealIP(s.opts.TrustedProxies))
	s.router.Use(webmw.Logger(s.observer()))
	s.router.Use(middleware.Recoverer)
	if s.opts.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.opts.RequestTimeout))
	}
	s.router.Use(securityHeaders(s.opts.EnableCSP))
	s.router.Use(requestMetadata)

	if s.opts.RequestsPerMinute > 0 {
		limiter := newRateLimiter(s.opts.RequestsPerMinute, time.Minute)
		s.limiters = append(s.limiters, limiter)
		s.router.Use(limiter.middleware)
	}
}

func (s *Server) observer() webmw.RequestObserver {
	if s.opts.Metrics == nil {
		return nil
	}
	return s.opts.Metrics
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handlePage)
	s.router.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		s.router.Handle("/metrics", s.opts.Metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		if len(s.opts.APIKeys) > 0 {
			r.Use(webmw.APIKeyAuth(s.opts.APIKeys))
		}

		// View state
		r.Get("/view", s.handleView)
		r.Post("/view/query", s.handleSetQuery)
		r.Post("/view/sort", s.handleSort)
		r.Post("/view/page", s.handleSetPage)
		r.Post("/view/page-size", s.handleSetPageSize)

		// Column registry
		r.Get("/columns", s.handleListColumns)
		r.Post("/columns", s.handleAddColumn)
		r.Post("/columns/reset", s.handleResetColumns)
		r.Post("/columns/reorder", s.handleReorderColumns)
		r.Post("/columns/{key}/toggle", s.handleToggleColumn)
		r.Put("/columns/{key}/visibility", s.handleSetColumnVisibility)

		// Records
		r.Get("/rows", s.handleListRows)
		r.Post("/rows", s.handleAddRow)
		r.Get("/rows/{id}", s.handleGetRow)
		r.Put("/rows/{id}", s.handleUpdateRow)
		r.Delete("/rows/{id}", s.handleDeleteRow)

		// Edit session
		r.Get("/edit", s.handleEditState)
		r.Post("/edit/touch", s.handleTouchRow)
		r.Post("/edit/field", s.handleEditField)
		r.Post("/edit/save", s.handleSaveEdits)
		r.Post("/edit/cancel", s.handleCancelEdits)

		// CSV
		importRoute := http.HandlerFunc(s.handleImport)
		if s.opts.ImportsPerMinute > 0 {
			limiter := newRateLimiter(s.opts.ImportsPerMinute, time.Minute)
			s.limiters = append(s.limiters, limiter)
			r.With(limiter.middleware).Post("/import", importRoute)
		} else {
			r.Post("/import", importRoute)
		}
		r.Post("/import/preview", s.handleImportPreview)
		r.Get("/import/status", s.handleImportStatus)
		r.Get("/export", s.handleExport)

		// Audit journal
		r.Get("/audit-log", s.handleAuditLog)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background work.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestMetadata puts the client IP and User-Agent into the request
// context for the audit journal. RemoteAddr is already resolved by
// TrustedRealIP.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.WithRequestMeta(r.Context(), core.RequestMeta{
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimiter implements a fixed-window request budget per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every window until stopped.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if rl.now().Sub(v.lastReset) > rl.window*2 {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: now}
		return true
	}
	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// middleware rejects requests over budget with 429.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			respondError(w, r, errRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
