package ui

import (
	"context"
	"net/http"
	"time"

	"assessr/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pinger reports database reachability for the health check
type Pinger interface {
	PingContext(ctx context.Context) error
}

// AppConfig holds root router settings
type AppConfig struct {
	Profiling bool
}

// App is the root HTTP handler. It serves operational endpoints itself and
// mounts the API server underneath.
type App struct {
	router  *chi.Mux
	server  *Server
	db      Pinger
	metrics *metrics.Observer
}

// NewApp builds the root router around server. db and observer may be nil.
func NewApp(server *Server, db Pinger, observer *metrics.Observer, config AppConfig) *App {
	a := &App{
		router:  chi.NewRouter(),
		server:  server,
		db:      db,
		metrics: observer,
	}
	a.setupMiddleware()
	a.setupRoutes(config)
	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes(config AppConfig) {
	a.router.Get("/healthz", a.handleHealth)
	if a.metrics != nil {
		a.router.Handle("/metrics", a.metrics.Handler())
	}
	if config.Profiling {
		a.router.Mount("/debug", middleware.Profiler())
	}
	a.router.Handle("/*", a.server.Handler())
}

// ServeHTTP implements http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if a.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable","database":"down"}`))
			return
		}
	}
	w.Write([]byte(`{"status":"ok"}`))
}
