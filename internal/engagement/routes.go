package engagement

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes wires engagement endpoints under the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/engagements", h.List)
	r.Get("/engagements/{id}", h.Show)
	r.Post("/engagements", h.Create)
	r.Post("/engagements/{id}/stages/start", h.StartStage)
	r.Post("/engagements/{id}/stages/complete", h.CompleteStage)
	r.Post("/engagements/{id}/reschedule", h.Reschedule)
	r.Post("/engagements/{id}/cancel", h.Cancel)
	r.Post("/engagements/{id}/payment/paid", h.MarkPaid)
	r.Delete("/engagements/{id}", h.Delete)
}
