/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/buckets/*        Bucket definitions
  /api/distributions    Daily inflow split
  /api/batches/*        Undo
  /api/outflows         Manual outflows
  /api/transfers        Bucket-to-bucket moves
  /api/entries          Movement history
  /api/goals/*          Debt/savings goals
  /api/reports/*        Read model
  /api/dues/*           Bills calendar
  /api/scenarios/*      Demo scenarios

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultCORSOrigins are the local frontend dev servers.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
// An empty corsOrigins uses DefaultCORSOrigins.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	if len(corsOrigins) == 0 {
		corsOrigins = DefaultCORSOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/buckets", func(r chi.Router) {
			r.Get("/", h.ListBuckets)
			r.Put("/", h.ReplaceBuckets)
			r.Get("/active", h.ListActiveBuckets)
		})

		r.Post("/distributions", h.Distribute)
		r.Delete("/batches/{id}", h.UndoBatch)
		r.Post("/outflows", h.RecordOutflow)
		r.Post("/transfers", h.Transfer)

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Delete("/", h.DeleteEntries)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", h.ListGoals)
			r.Put("/", h.UpsertGoal)
			r.Delete("/{id}", h.DeleteGoal)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/balances", h.GetBalances)
			r.Get("/daily", h.GetDailyTotals)
			r.Get("/monthly", h.GetMonthlyTotals)
			r.Get("/attack", h.GetAttackStatus)
			r.Get("/dashboard", h.GetDashboard)
		})

		r.Route("/dues", func(r chi.Router) {
			r.Get("/", h.ListDues)
			r.Post("/", h.SaveDue)
			r.Get("/upcoming", h.ListUpcomingDues)
			r.Delete("/{id}", h.DeleteDue)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
