package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/clinic-front-desk/internal/observability"
	"github.com/robertarktes/clinic-front-desk/internal/rateLimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(RateLimitMiddleware(rl))
	r.Use(IdempotencyMiddleware())

	r.Route("/v1/queue", func(r chi.Router) {
		r.Get("/", h.GetQueue)
		r.Post("/tickets", h.TakeTicket)
		r.Get("/tickets", h.ListTickets)
		r.Post("/tickets/{id}/cancel", h.CancelTicket)
		r.Post("/call-next", h.CallNext)
		r.Post("/status", h.ToggleStatus)
		r.Put("/settings", h.UpdateSettings)
	})

	r.Route("/v1/patients", func(r chi.Router) {
		r.Post("/", h.CreatePatient)
		r.Get("/", h.ListPatients)
		r.Get("/{id}", h.GetPatient)
		r.Put("/{id}", h.UpdatePatient)
		r.Delete("/{id}", h.DeletePatient)
	})

	r.Route("/v1/complaints", func(r chi.Router) {
		r.Post("/", h.CreateComplaint)
		r.Get("/", h.ListComplaints)
		r.Get("/{id}", h.GetComplaint)
		r.Post("/{id}/respond", h.RespondComplaint)
		r.Post("/{id}/status", h.UpdateComplaintStatus)
		r.Delete("/{id}", h.DeleteComplaint)
	})

	r.Get("/v1/reports/queue", h.QueueReport)
	r.Get("/v1/reports/complaints", h.ComplaintReport)

	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
