package catalog

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes wires product endpoints under the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.List)
	r.Get("/products/price-suggestion", h.SuggestPrice)
	r.Get("/products/{id}", h.Show)
	r.Post("/products/scan", h.Scan)
	r.Post("/products", h.Create)
	r.Patch("/products/{id}", h.Update)
}
