// Package render turns a quote and its computed totals into a complete,
// styled, printable HTML document. The output is a self-contained markup
// string; turning it into a paginated PDF is the job of the host print
// pipeline. Rendering is stateless and never fails: missing data degrades to
// placeholder text.
package render

import (
	"bytes"
	"html/template"
	"strconv"
	"strings"

	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/money"
	"github.com/diewo77/go-quotes/internal/pricing"
)

// Renderer holds the presentation policy: label language and money locale.
type Renderer struct {
	formatter *money.Formatter
	lang      string
	tpl       *template.Template
}

// NewRenderer builds a renderer. A nil formatter falls back to pt-BR/BRL and
// an empty lang to the default document language.
func NewRenderer(formatter *money.Formatter, lang string) *Renderer {
	if formatter == nil {
		formatter = money.Default()
	}
	if lang == "" {
		lang = i18n.DefaultLang
	}
	r := &Renderer{formatter: formatter, lang: lang}
	r.tpl = template.Must(template.New("document").Funcs(template.FuncMap{
		"t":     func(code string) string { return i18n.T(lang, code) },
		"money": func(v float64) string { return formatter.Format(v) },
	}).Parse(documentTemplate))
	return r
}

type cssPalette struct {
	Primary        template.CSS
	Dark           template.CSS
	Light          template.CSS
	Background     template.CSS
	HeaderGradient template.CSS
	Text           template.CSS
	Muted          template.CSS
}

type itemRow struct {
	Description string
	UnitPrice   float64
	Needed      int
	Owned       int
	Buy         int
	LineTotal   float64
	Savings     float64
}

type documentData struct {
	Palette     cssPalette
	CompanyName string
	LogoURL     string
	Code        string
	IssueDate   string
	Title       string
	ClientName  string
	ClientEmail string
	Items       []itemRow
	Subtotal    float64
	Discount    float64
	DiscountPct string
	Total       float64
	Notes       string
}

// Render produces the document markup. It never returns an error: malformed
// input (missing company, empty items, unknown variant) renders with
// placeholders and the default palette.
func (r *Renderer) Render(q models.Quote, totals pricing.Totals, company models.CompanySettings) string {
	p := PaletteFor(q.TemplateVariant)

	text, muted := "#111827", "#6b7280"
	if p.Inverted {
		text, muted = "#f9fafb", "#9ca3af"
	}

	data := documentData{
		Palette: cssPalette{
			Primary:        template.CSS(p.Primary),
			Dark:           template.CSS(p.Dark),
			Light:          template.CSS(p.Light),
			Background:     template.CSS(p.Background),
			HeaderGradient: template.CSS(p.HeaderGradient),
			Text:           template.CSS(text),
			Muted:          template.CSS(muted),
		},
		CompanyName: strings.TrimSpace(company.Name),
		LogoURL:     strings.TrimSpace(company.LogoURL),
		Code:        q.Code,
		Title:       strings.TrimSpace(q.Title),
		ClientName:  strings.TrimSpace(q.ClientName),
		ClientEmail: strings.TrimSpace(q.ClientEmail),
		Subtotal:    totals.Subtotal,
		Discount:    totals.DiscountAmount,
		Total:       totals.Total,
		Notes:       strings.TrimSpace(q.Notes),
	}
	if !q.IssueDate.IsZero() {
		data.IssueDate = q.IssueDate.Format("02/01/2006")
	}
	if pct := pricing.ClampDiscount(q.DiscountPercent); pct > 0 {
		data.DiscountPct = strconv.FormatFloat(pct, 'f', -1, 64)
	}

	for _, item := range q.Items {
		data.Items = append(data.Items, itemRow{
			Description: item.Description,
			UnitPrice:   item.UnitPrice,
			Needed:      item.NeededQty,
			Owned:       item.OwnedQty,
			Buy:         item.BuyQuantity(),
			LineTotal:   item.LineTotal(),
			Savings:     item.Savings(),
		})
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, data); err != nil {
		// The template is constant and the data is plain values, so this is
		// unreachable in practice; degrade to a bare document anyway.
		return "<!DOCTYPE html><html><body><p>" +
			template.HTMLEscapeString(q.Code) + "</p></body></html>"
	}
	return buf.String()
}

const documentTemplate = `<!DOCTYPE html>
<html lang="{{t "lang_code"}}">
<head>
<meta charset="utf-8">
<title>{{t "quote"}} {{.Code}}</title>
<style>
  body { margin: 0; font-family: 'Helvetica Neue', Arial, sans-serif; background: {{.Palette.Background}}; color: {{.Palette.Text}}; }
  .page { max-width: 800px; margin: 0 auto; padding: 32px; }
  .header { background: {{.Palette.HeaderGradient}}; color: #ffffff; border-radius: 8px; padding: 24px 32px; display: flex; justify-content: space-between; align-items: center; }
  .header img { max-height: 64px; }
  .header .company { font-size: 1.5em; font-weight: bold; }
  .header .meta { text-align: right; font-size: 0.9em; }
  .client { margin: 24px 0; padding: 16px; border-left: 4px solid {{.Palette.Primary}}; }
  .client .label { color: {{.Palette.Muted}}; font-size: 0.8em; text-transform: uppercase; }
  table { width: 100%; border-collapse: collapse; margin: 16px 0; }
  th { background: {{.Palette.Light}}; color: {{.Palette.Dark}}; text-align: left; padding: 8px; font-size: 0.85em; }
  td { padding: 8px; border-bottom: 1px solid {{.Palette.Light}}; font-size: 0.9em; }
  td.num, th.num { text-align: right; }
  .savings { color: {{.Palette.Primary}}; font-size: 0.8em; }
  .placeholder { color: {{.Palette.Muted}}; font-style: italic; text-align: center; }
  .summary { margin-left: auto; width: 280px; }
  .summary td { border: none; }
  .summary .total { font-size: 1.15em; font-weight: bold; color: {{.Palette.Primary}}; border-top: 2px solid {{.Palette.Primary}}; }
  .notes { margin-top: 24px; padding: 16px; background: {{.Palette.Light}}; color: {{.Palette.Dark}}; border-radius: 8px; }
  .footer { margin-top: 40px; text-align: center; font-size: 0.75em; color: {{.Palette.Muted}}; }
  @media print { .page { padding: 0; } }
</style>
</head>
<body>
<div class="page">
  <div class="header">
    <div>
      {{if .LogoURL}}<img src="{{.LogoURL}}" alt="{{.CompanyName}}">
      {{else if .CompanyName}}<div class="company">{{.CompanyName}}</div>
      {{else}}<div class="company">{{t "no_company"}}</div>{{end}}
    </div>
    <div class="meta">
      <div><strong>{{t "quote"}}</strong> {{.Code}}</div>
      {{if .IssueDate}}<div>{{t "date"}}: {{.IssueDate}}</div>{{end}}
    </div>
  </div>

  {{if .Title}}<h2>{{.Title}}</h2>{{end}}

  <div class="client">
    <div class="label">{{t "client"}}</div>
    <div>{{if .ClientName}}{{.ClientName}}{{else}}{{t "no_client"}}{{end}}</div>
    {{if .ClientEmail}}<div>{{t "email"}}: {{.ClientEmail}}</div>{{end}}
  </div>

  <table>
    <thead>
      <tr>
        <th>{{t "description"}}</th>
        <th class="num">{{t "unit_price"}}</th>
        <th class="num">{{t "needed_qty"}}</th>
        <th class="num">{{t "owned_qty"}}</th>
        <th class="num">{{t "buy_qty"}}</th>
        <th class="num">{{t "line_total"}}</th>
      </tr>
    </thead>
    <tbody>
      {{range .Items}}
      <tr>
        <td>{{.Description}}
          {{if gt .Owned 0}}<div class="savings">{{t "savings"}}: {{money .Savings}}</div>{{end}}
        </td>
        <td class="num">{{money .UnitPrice}}</td>
        <td class="num">{{.Needed}}</td>
        <td class="num">{{.Owned}}</td>
        <td class="num">{{.Buy}}</td>
        <td class="num">{{money .LineTotal}}</td>
      </tr>
      {{else}}
      <tr><td colspan="6" class="placeholder">{{t "no_items"}}</td></tr>
      {{end}}
    </tbody>
  </table>

  <table class="summary">
    <tr><td>{{t "subtotal"}}</td><td class="num">{{money .Subtotal}}</td></tr>
    {{if .DiscountPct}}<tr><td>{{t "discount"}} ({{.DiscountPct}}%)</td><td class="num">&minus; {{money .Discount}}</td></tr>{{end}}
    <tr class="total"><td class="total">{{t "total"}}</td><td class="num total">{{money .Total}}</td></tr>
  </table>

  {{if .Notes}}
  <div class="notes">
    <strong>{{t "notes"}}</strong>
    <p>{{.Notes}}</p>
  </div>
  {{end}}

  <div class="footer">{{t "disclaimer"}}</div>
</div>
</body>
</html>
`
