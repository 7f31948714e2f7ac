package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	cfotel "github.com/Strob0t/planforge/internal/adapter/otel"
	"github.com/Strob0t/planforge/internal/middleware"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	CORSOrigin  string
	ServiceName string // Enables otelhttp spans when non-empty
	Submit      *middleware.SubmitLimiter
	WebSocket   http.HandlerFunc // Mounted at /ws when non-nil
}

// NewRouter builds the complete HTTP handler: middleware, health, the
// optional WebSocket endpoint and the v1 API.
func NewRouter(h *Handlers, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(Logger)
	r.Use(chimw.Recoverer)
	r.Use(SecurityHeaders)
	r.Use(CORS(opts.CORSOrigin))
	if opts.ServiceName != "" {
		r.Use(cfotel.HTTPMiddleware(opts.ServiceName))
	}

	r.With(chimw.Timeout(10*time.Second)).Get("/health", h.Health)
	if opts.WebSocket != nil {
		r.Get("/ws", opts.WebSocket)
	}

	MountRoutes(r, h, opts.Submit)
	return r
}

// MountRoutes registers the v1 API on r. submit may be nil.
func MountRoutes(r chi.Router, h *Handlers, submit *middleware.SubmitLimiter) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", h.Version)

		r.Get("/solvers", h.ListSolvers)

		r.With(submit.Handler).Post("/runs", h.CreateRun)
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{id}", h.GetRun)
	})
}
