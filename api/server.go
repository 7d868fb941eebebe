/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from proxy headers (rate limit key)
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for frontends
  6. RateLimit:  Per-client token bucket on /api

ROUTE GROUPS:
  /api/intervals/*      Interval engine
  /api/series/*         Data points
  /api/calendars/*      Calendar definitions and heatmaps
  /api/scenarios/*      Demo scenarios
  /api/reset            Database reset (dev only)
  /                     Endpoint index

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - ratelimit.go: Rate limiter
  - cli/serve.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	AllowedOrigins []string
	RateLimit      float64 // Requests per second per client; 0 disables
	RateBurst      int
}

// DefaultRouterOptions returns the options used by the serve command.
func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		RateLimit:      10,
		RateBurst:      20,
	}
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	limiter := NewRateLimiter(opts.RateLimit, opts.RateBurst)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Middleware)

		// Interval routes
		r.Route("/intervals/{unit}", func(r chi.Router) {
			r.Get("/start", h.StartOf)
			r.Get("/sequence", h.Sequence)
		})

		// Series routes
		r.Route("/series", func(r chi.Router) {
			r.Get("/", h.ListSeries)
			r.Get("/{series}/points", h.ListPoints)
			r.Post("/{series}/points", h.AppendPoints)
		})

		// Calendar routes
		r.Route("/calendars", func(r chi.Router) {
			r.Get("/", h.ListCalendars)
			r.Post("/", h.CreateCalendar)
			r.Get("/{id}", h.GetCalendar)
			r.Delete("/{id}", h.DeleteCalendar)
			r.Get("/{id}/heatmap", h.GetHeatmap)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		r.Post("/reset", h.ResetDatabase)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Calendar Heatmap</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Calendar Heatmap API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/intervals/week/start">/api/intervals/{unit}/start</a> - Start of the interval containing ?at</li>
<li><a href="/api/intervals/day/sequence?count=7">/api/intervals/{unit}/sequence</a> - Consecutive interval starts</li>
<li><a href="/api/series">/api/series</a> - List series</li>
<li><a href="/api/calendars">/api/calendars</a> - List calendars</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
