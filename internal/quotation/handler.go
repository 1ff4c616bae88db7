package quotation

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gemdesk/gemdesk/internal/observability"
	"github.com/gemdesk/gemdesk/internal/platform/httpx"
	"github.com/gemdesk/gemdesk/internal/shared"
)

// Handler exposes quotation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	metrics  *observability.Metrics
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// SetMetrics attaches the acceptance counter. Safe to skip in tests.
func (h *Handler) SetMetrics(m *observability.Metrics) {
	h.metrics = m
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListQuotationsRequest{}
	if s := r.URL.Query().Get("status"); s != "" {
		status := Status(s)
		req.Status = &status
	}
	if c := r.URL.Query().Get("customer_id"); c != "" {
		req.CustomerID = &c
	}
	if e := r.URL.Query().Get("engagement_id"); e != "" {
		req.EngagementID = &e
	}
	req.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	req.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	quotations, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list quotations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quotations": quotations, "total": total})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := shared.SessionFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req CreateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	q, err := h.service.Create(r.Context(), sess, req)
	if err != nil {
		h.logger.Error("create quotation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

// edit decodes a request body into req, validates it, and runs fn.
func (h *Handler) edit(w http.ResponseWriter, r *http.Request, req any, fn func(sess shared.Session, id string) (*Quotation, error)) {
	sess, ok := shared.SessionFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	if req != nil {
		if err := httpx.DecodeJSON(r, req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
			return
		}
		if err := h.validate.Struct(req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
	}
	q, err := fn(sess, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddLineItemRequest
	h.edit(w, r, &req, func(sess shared.Session, id string) (*Quotation, error) {
		return h.service.AddLineItem(r.Context(), sess, id, req)
	})
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	h.edit(w, r, &req, func(sess shared.Session, id string) (*Quotation, error) {
		return h.service.UpdateQuantity(r.Context(), sess, id, req)
	})
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req RemoveLineItemRequest
	h.edit(w, r, &req, func(sess shared.Session, id string) (*Quotation, error) {
		return h.service.RemoveLineItem(r.Context(), sess, id, req)
	})
}

func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	var req SetDiscountRequest
	h.edit(w, r, &req, func(sess shared.Session, id string) (*Quotation, error) {
		return h.service.SetDiscount(r.Context(), sess, id, req)
	})
}

func (h *Handler) UnlockAdvanced(w http.ResponseWriter, r *http.Request) {
	var req UnlockDiscountRequest
	h.edit(w, r, &req, func(sess shared.Session, id string) (*Quotation, error) {
		return h.service.UnlockAdvanced(r.Context(), sess, id, req)
	})
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Validate(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"valid": true})
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, nil, func(sess shared.Session, id string) (*Quotation, error) {
		q, err := h.service.Accept(r.Context(), sess, id)
		if err == nil {
			h.metrics.QuotationAccepted()
		}
		return q, err
	})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, nil, func(sess shared.Session, id string) (*Quotation, error) {
		return h.service.Reject(r.Context(), sess, id)
	})
}

func (h *Handler) DiscountOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.DiscountOptionsFor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, opts)
}
