package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/gemdesk/gemdesk/internal/quotation"
	"github.com/gemdesk/gemdesk/web"
)

// PDFClient exposes the subset of the Gotenberg client the renderer needs.
type PDFClient interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// QuotationDocument is the view model handed to the quotation template.
type QuotationDocument struct {
	Number          string
	CustomerName    string
	CustomerType    string
	Status          string
	IssuedAt        time.Time
	ValidUntil      time.Time
	Items           []quotation.LineItem
	DiscountPercent decimal.Decimal
	Totals          quotation.Totals
	Notes           string
}

// Renderer turns quotations into printable PDFs via html/template + Gotenberg.
type Renderer struct {
	tpl    *template.Template
	client PDFClient
}

// NewRenderer parses the quotation template and wires the PDF client.
func NewRenderer(client PDFClient) (*Renderer, error) {
	if client == nil {
		return nil, fmt.Errorf("report renderer: pdf client required")
	}
	// en-IN groups digits in the lakh/crore pattern expected on invoices.
	printer := message.NewPrinter(language.MustParse("en-IN"))
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
		"money": func(v decimal.Decimal) string {
			f, _ := v.Float64()
			return printer.Sprintf("₹%v", number.Decimal(f,
				number.MinFractionDigits(2), number.MaxFractionDigits(2)))
		},
		"percent": func(v decimal.Decimal) string {
			return v.StringFixed(2) + "%"
		},
	}
	tpl, err := template.New("quotation.html").Funcs(funcMap).ParseFS(web.Templates, "templates/quotation.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tpl: tpl, client: client}, nil
}

// BuildQuotationDocument flattens a quotation into template fields.
func BuildQuotationDocument(q *quotation.Quotation) QuotationDocument {
	return QuotationDocument{
		Number:          q.Number,
		CustomerName:    q.CustomerName,
		CustomerType:    string(q.CustomerType),
		Status:          string(q.Status),
		IssuedAt:        q.CreatedAt,
		ValidUntil:      q.ValidUntil,
		Items:           q.Items,
		DiscountPercent: q.DiscountPercent,
		Totals:          q.Totals,
		Notes:           q.Notes,
	}
}

// Render executes the template and converts the HTML to PDF bytes.
func (r *Renderer) Render(ctx context.Context, doc QuotationDocument) ([]byte, error) {
	if r == nil || r.tpl == nil || r.client == nil {
		return nil, fmt.Errorf("report renderer not initialised")
	}
	buf := &bytes.Buffer{}
	if err := r.tpl.Execute(buf, doc); err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, buf.String())
}
