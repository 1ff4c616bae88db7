package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gemdesk/gemdesk/internal/auth"
	"github.com/gemdesk/gemdesk/internal/catalog"
	"github.com/gemdesk/gemdesk/internal/customers"
	"github.com/gemdesk/gemdesk/internal/engagement"
	"github.com/gemdesk/gemdesk/internal/insights"
	"github.com/gemdesk/gemdesk/internal/markup"
	"github.com/gemdesk/gemdesk/internal/observability"
	"github.com/gemdesk/gemdesk/internal/quotation"
	"github.com/gemdesk/gemdesk/jobs"
	"github.com/gemdesk/gemdesk/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Tokens            *auth.TokenStore
	AuthHandler       *auth.Handler
	CatalogHandler    *catalog.Handler
	CustomerHandler   *customers.Handler
	EngagementHandler *engagement.Handler
	QuotationHandler  *quotation.Handler
	MarkupHandler     *markup.Handler
	InsightsHandler   *insights.Handler
	ReportHandler     *report.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Gemdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		params.AuthHandler.MountPublicRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(auth.Middleware(params.Tokens))
			params.AuthHandler.MountRoutes(protected)
			params.CatalogHandler.MountRoutes(protected)
			params.CustomerHandler.MountRoutes(protected)
			params.EngagementHandler.MountRoutes(protected)
			params.QuotationHandler.MountRoutes(protected)
			if params.MarkupHandler != nil {
				params.MarkupHandler.MountRoutes(protected)
			}
			params.InsightsHandler.MountRoutes(protected)
			if params.ReportHandler != nil {
				protected.Route("/reports", params.ReportHandler.MountRoutes)
			}
			if params.JobHandler != nil {
				protected.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}
