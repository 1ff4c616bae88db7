package insights

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/gemdesk/gemdesk/internal/shared"
)

// RevenuePoint is one day of accepted quotation revenue.
type RevenuePoint struct {
	Day     time.Time       `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
	Count   int             `json:"count"`
}

// TopProduct aggregates quoted quantity for a product in the window.
type TopProduct struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// FunnelStep is the engagement count that reached a stage.
type FunnelStep struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// Dashboard is the full aggregate payload.
type Dashboard struct {
	From             time.Time      `json:"from"`
	To               time.Time      `json:"to"`
	RevenueByDay     []RevenuePoint `json:"revenue_by_day"`
	TopProducts      []TopProduct   `json:"top_products"`
	AcceptedTotal    int            `json:"accepted_total"`
	DraftTotal       int            `json:"draft_total"`
	EngagementFunnel []FunnelStep   `json:"engagement_funnel"`
}

// Service answers read-only dashboard queries. The four aggregate queries
// fan out concurrently.
type Service struct {
	pool *pgxpool.Pool
}

// NewService builds the service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Dashboard gathers all aggregates for the window.
func (s *Service) Dashboard(ctx context.Context, sess shared.Session, from, to time.Time) (*Dashboard, error) {
	if !sess.Allow(shared.PermViewAnalytics) {
		return nil, shared.ErrForbidden
	}
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}

	out := &Dashboard{From: from, To: to}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		points, err := s.revenueByDay(ctx, from, to)
		if err != nil {
			return err
		}
		out.RevenueByDay = points
		return nil
	})
	g.Go(func() error {
		products, err := s.topProducts(ctx, from, to, 10)
		if err != nil {
			return err
		}
		out.TopProducts = products
		return nil
	})
	g.Go(func() error {
		accepted, drafts, err := s.quotationCounts(ctx, from, to)
		if err != nil {
			return err
		}
		out.AcceptedTotal = accepted
		out.DraftTotal = drafts
		return nil
	})
	g.Go(func() error {
		funnel, err := s.engagementFunnel(ctx, from, to)
		if err != nil {
			return err
		}
		out.EngagementFunnel = funnel
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) revenueByDay(ctx context.Context, from, to time.Time) ([]RevenuePoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date_trunc('day', updated_at) AS day,
		       COALESCE(SUM((
		           SELECT SUM((item->>'unit_price')::numeric * (item->>'quantity')::int)
		           FROM jsonb_array_elements(items) AS item
		       ) * (1 - discount_percent / 100) * 1.18), 0),
		       COUNT(*)
		FROM quotations
		WHERE status = 'accepted' AND updated_at BETWEEN $1 AND $2
		GROUP BY 1 ORDER BY 1`, from, to)
	if err != nil {
		return nil, &shared.PersistenceError{Op: "insights.revenue_by_day", Err: err}
	}
	defer rows.Close()

	var out []RevenuePoint
	for rows.Next() {
		var p RevenuePoint
		if err := rows.Scan(&p.Day, &p.Revenue, &p.Count); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Service) topProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT item->>'product_id', item->>'sku', item->>'name',
		       SUM((item->>'quantity')::int),
		       SUM((item->>'unit_price')::numeric * (item->>'quantity')::int)
		FROM quotations, jsonb_array_elements(items) AS item
		WHERE status = 'accepted' AND updated_at BETWEEN $1 AND $2
		GROUP BY 1, 2, 3
		ORDER BY 4 DESC
		LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, &shared.PersistenceError{Op: "insights.top_products", Err: err}
	}
	defer rows.Close()

	var out []TopProduct
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.ProductID, &p.SKU, &p.Name, &p.Quantity, &p.Revenue); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Service) quotationCounts(ctx context.Context, from, to time.Time) (accepted, drafts int, err error) {
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'accepted'),
		       COUNT(*) FILTER (WHERE status = 'draft')
		FROM quotations
		WHERE created_at BETWEEN $1 AND $2`, from, to).Scan(&accepted, &drafts)
	if err != nil {
		return 0, 0, &shared.PersistenceError{Op: "insights.quotation_counts", Err: err}
	}
	return accepted, drafts, nil
}

func (s *Service) engagementFunnel(ctx context.Context, from, to time.Time) ([]FunnelStep, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT stage.key, COUNT(*)
		FROM engagements, jsonb_each_text(stage_status) AS stage
		WHERE created_at BETWEEN $1 AND $2 AND stage.value = 'completed'
		GROUP BY 1`, from, to)
	if err != nil {
		return nil, &shared.PersistenceError{Op: "insights.engagement_funnel", Err: err}
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var stage string
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, err
		}
		counts[stage] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Preserve pipeline order in the response.
	order := []string{"video_call", "quotation", "profiling", "payment", "qc", "packaging", "dispatch"}
	out := make([]FunnelStep, 0, len(order))
	for _, stage := range order {
		out = append(out, FunnelStep{Stage: stage, Count: counts[stage]})
	}
	return out, nil
}
