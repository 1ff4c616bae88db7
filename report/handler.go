package report

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gemdesk/gemdesk/internal/platform/httpx"
	"github.com/gemdesk/gemdesk/internal/quotation"
)

// QuotationSource loads quotations for rendering.
type QuotationSource interface {
	Get(ctx context.Context, id string) (*quotation.Quotation, error)
}

// Handler manages report endpoints.
type Handler struct {
	client     *Client
	renderer   *Renderer
	quotations QuotationSource
	logger     *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(logger *slog.Logger, client *Client, renderer *Renderer, quotations QuotationSource) *Handler {
	return &Handler{client: client, renderer: renderer, quotations: quotations, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/quotations/{id}", h.quotationPDF)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) quotationPDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q, err := h.quotations.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pdf, err := h.renderer.Render(r.Context(), BuildQuotationDocument(q))
	if err != nil {
		h.logger.Error("render quotation pdf", slog.String("quotation_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+q.Number+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
