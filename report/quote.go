package report

import (
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dentora/dentora/internal/quotes"
)

var huPrinter = message.NewPrinter(language.Hungarian)

// FormatAmount renders a minor-unit amount in Hungarian convention,
// e.g. 25 000 Ft.
func FormatAmount(amount int64, currency string) string {
	if currency == "" || currency == "HUF" {
		return huPrinter.Sprintf("%d Ft", amount)
	}
	return huPrinter.Sprintf("%d %s", amount, currency)
}

var quoteTemplate = template.Must(template.New("quote").Funcs(template.FuncMap{
	"amount": FormatAmount,
}).Parse(`<!DOCTYPE html>
<html lang="hu">
<head>
<meta charset="utf-8">
<title>Árajánlat {{.Quote.Number}}</title>
<style>
body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 12px; color: #222; margin: 40px; }
h1 { font-size: 20px; margin-bottom: 0; }
.meta { color: #666; margin-bottom: 24px; }
table { width: 100%; border-collapse: collapse; margin-bottom: 16px; }
th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #ddd; }
th { background: #f5f5f5; }
td.num, th.num { text-align: right; }
.session { margin-top: 20px; font-size: 14px; font-weight: bold; }
.totals td { border: none; padding: 3px 8px; }
.totals .grand { font-weight: bold; border-top: 2px solid #222; }
.comment { margin-top: 24px; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>Árajánlat {{.Quote.Number}}</h1>
<div class="meta">
	<div>Páciens: {{.PatientName}}</div>
	<div>Kezelőorvos: {{.Quote.DoctorName}}</div>
	<div>Kelt: {{.Quote.CreatedAt.Format "2006.01.02."}}</div>
</div>
{{range .Sessions}}
{{if $.MultiSession}}<div class="session">{{.Label}}</div>{{end}}
<table>
<thead>
<tr><th>Kezelés</th><th>Terület</th><th class="num">Mennyiség</th><th class="num">Egységár</th><th class="num">Összesen</th></tr>
</thead>
<tbody>
{{range .Rows}}
<tr>
	<td>{{.Name}}</td>
	<td>{{.Area}}</td>
	<td class="num">{{.Qty}} {{.Unit}}</td>
	<td class="num">{{amount .UnitPrice .Currency}}</td>
	<td class="num">{{amount .LineTotal .Currency}}</td>
</tr>
{{end}}
</tbody>
</table>
{{end}}
<table class="totals">
<tr><td>Részösszeg</td><td class="num">{{amount .Totals.Subtotal .Quote.Currency}}</td></tr>
{{if .Totals.LineDiscounts}}<tr><td>Tételkedvezmények</td><td class="num">-{{amount .Totals.LineDiscounts .Quote.Currency}}</td></tr>{{end}}
{{if .Totals.GlobalDiscount}}<tr><td>Kedvezmény</td><td class="num">-{{amount .Totals.GlobalDiscount .Quote.Currency}}</td></tr>{{end}}
<tr class="grand"><td>Fizetendő</td><td class="num">{{amount .Totals.Total .Quote.Currency}}</td></tr>
</table>
{{if .Quote.Comment}}<div class="comment">{{.Quote.Comment}}</div>{{end}}
</body>
</html>`))

type quoteRow struct {
	Name      string
	Area      string
	Qty       int64
	Unit      string
	UnitPrice int64
	Currency  string
	LineTotal int64
}

type sessionBlock struct {
	Label string
	Rows  []quoteRow
}

func rowsFromMerged(merged []quotes.MergedItem) []quoteRow {
	rows := make([]quoteRow, 0, len(merged))
	for _, g := range merged {
		row := quoteRow{
			Name:      g.Name,
			Area:      g.TreatedAreaText,
			Qty:       g.TotalQty,
			LineTotal: g.LineTotal,
		}
		if len(g.Items) > 0 {
			row.Unit = g.Items[0].Unit
			row.UnitPrice = g.Items[0].UnitPriceGross
			row.Currency = g.Items[0].Currency
		}
		rows = append(rows, row)
	}
	return rows
}

type quoteDocument struct {
	Quote        *quotes.Quote
	Totals       quotes.Totals
	PatientName  string
	Sessions     []sessionBlock
	MultiSession bool
}

// BuildQuoteHTML renders the printable quote document. Items are shown in
// their merged per-session form, the same grouping the editor's session view
// uses.
func BuildQuoteHTML(view *quotes.View, patientName string) (string, error) {
	bySession := quotes.MergeBySession(view.Quote.Items)

	var sessions []sessionBlock
	for n := 1; n <= view.Quote.ExpectedTreatments; n++ {
		items := bySession[n]
		if len(items) == 0 {
			continue
		}
		sessions = append(sessions, sessionBlock{
			Label: fmt.Sprintf("%d. kezelés", n),
			Rows:  rowsFromMerged(items),
		})
	}

	doc := quoteDocument{
		Quote:        view.Quote,
		Totals:       view.Totals,
		PatientName:  patientName,
		Sessions:     sessions,
		MultiSession: len(sessions) > 1,
	}

	var sb strings.Builder
	if err := quoteTemplate.Execute(&sb, doc); err != nil {
		return "", fmt.Errorf("report: render quote template: %w", err)
	}
	return sb.String(), nil
}
