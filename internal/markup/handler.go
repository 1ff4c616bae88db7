package markup

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/gemdesk/gemdesk/internal/platform/httpx"
	"github.com/gemdesk/gemdesk/internal/shared"
)

// UpsertRuleRequest is the admin payload for creating or replacing a rule.
type UpsertRuleRequest struct {
	Kind     string `json:"kind" validate:"required,oneof=manufacturer category"`
	Key      string `json:"key" validate:"required"`
	Fraction string `json:"fraction" validate:"required"`
}

// Handler exposes markup rule administration.
type Handler struct {
	logger   *slog.Logger
	repo     *Repository
	validate *validator.Validate
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, repo *Repository) *Handler {
	return &Handler{logger: logger, repo: repo, validate: validator.New()}
}

// MountRoutes attaches the rule admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/markup-rules", func(r chi.Router) {
		r.Get("/", h.list)
		r.Put("/", h.upsert)
		r.Delete("/{kind}/{key}", h.remove)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rules, err := h.repo.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if rules == nil {
		rules = []Rule{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request) {
	sess, ok := shared.SessionFromContext(r.Context())
	if !ok || !sess.Allow(shared.PermManageSettings) {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	var req UpsertRuleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	fraction, err := decimal.NewFromString(req.Fraction)
	if err != nil || fraction.IsNegative() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "fraction must be a non-negative decimal")
		return
	}
	rule := Rule{Kind: RuleKind(req.Kind), Key: req.Key, Fraction: fraction}
	if err := h.repo.Upsert(r.Context(), rule); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rule)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	sess, ok := shared.SessionFromContext(r.Context())
	if !ok || !sess.Allow(shared.PermManageSettings) {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	kind := RuleKind(chi.URLParam(r, "kind"))
	if kind != RuleKindManufacturer && kind != RuleKindCategory {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown rule kind")
		return
	}
	if err := h.repo.Delete(r.Context(), kind, chi.URLParam(r, "key")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
