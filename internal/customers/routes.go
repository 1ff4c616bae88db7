package customers

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes wires customer endpoints under the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/customers", h.List)
	r.Get("/customers/{id}", h.Show)
	r.Post("/customers", h.Create)
	r.Patch("/customers/{id}", h.Update)
}
