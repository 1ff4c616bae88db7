package quotation

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes wires quotation endpoints under the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotations", h.List)
	r.Post("/quotations", h.Create)
	r.Get("/quotations/{id}", h.Show)
	r.Get("/quotations/{id}/discount-options", h.DiscountOptions)
	r.Post("/quotations/{id}/items", h.AddItem)
	r.Post("/quotations/{id}/items/quantity", h.UpdateQuantity)
	r.Post("/quotations/{id}/items/remove", h.RemoveItem)
	r.Post("/quotations/{id}/discount", h.SetDiscount)
	r.Post("/quotations/{id}/discount/unlock", h.UnlockAdvanced)
	r.Post("/quotations/{id}/validate", h.Validate)
	r.Post("/quotations/{id}/accept", h.Accept)
	r.Post("/quotations/{id}/reject", h.Reject)
}
