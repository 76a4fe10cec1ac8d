package export

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/atelier-erp/atelier-erp/internal/rollup"
)

// DashboardPayload aggregates rollup data destined for PDF rendering.
type DashboardPayload struct {
	Period       string
	Monthly      []rollup.MonthBucket
	Distribution []rollup.StatusCount
	TopMaterials []rollup.LabelQuantity
	Ranking      []rollup.RatedEntity
}

// HTMLRenderer converts a finished HTML document into PDF bytes.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// PDFExporter builds the dashboard HTML and hands it to a renderer.
type PDFExporter struct {
	Renderer HTMLRenderer
}

// RenderDashboard renders the payload's section tables to a PDF document.
func (p *PDFExporter) RenderDashboard(ctx context.Context, payload DashboardPayload) ([]byte, error) {
	if p == nil || p.Renderer == nil {
		return nil, fmt.Errorf("pdf renderer not configured")
	}
	return p.Renderer.RenderHTML(ctx, buildHTML(payload))
}

func buildHTML(payload DashboardPayload) string {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}section{margin-bottom:24px;} .row-label{text-align:left;}")
	b.WriteString("</style></head><body>")
	b.WriteString(fmt.Sprintf("<h1>Procurement Dashboard – %s</h1>", html.EscapeString(payload.Period)))

	if len(payload.Monthly) > 0 {
		b.WriteString("<section><h2>Monthly Orders</h2><table><thead><tr><th>Month</th><th>Orders</th><th>Spend</th></tr></thead><tbody>")
		for _, bucket := range payload.Monthly {
			b.WriteString("<tr><td class=\"row-label\">")
			b.WriteString(html.EscapeString(bucket.Label))
			b.WriteString("</td><td>")
			b.WriteString(strconv.Itoa(bucket.Count))
			b.WriteString("</td><td>")
			b.WriteString(formatFloat(bucket.Sum))
			b.WriteString("</td></tr>")
		}
		b.WriteString("</tbody></table></section>")
	}

	if len(payload.Distribution) > 0 {
		b.WriteString("<section><h2>Order Status</h2><table><thead><tr><th>Status</th><th>Orders</th></tr></thead><tbody>")
		for _, count := range payload.Distribution {
			b.WriteString("<tr><td class=\"row-label\">")
			b.WriteString(html.EscapeString(count.Label))
			b.WriteString("</td><td>")
			b.WriteString(strconv.Itoa(count.Count))
			b.WriteString("</td></tr>")
		}
		b.WriteString("</tbody></table></section>")
	}

	if len(payload.TopMaterials) > 0 {
		b.WriteString("<section><h2>Top Materials</h2><table><thead><tr><th>Material</th><th>Quantity</th></tr></thead><tbody>")
		for _, item := range payload.TopMaterials {
			b.WriteString("<tr><td class=\"row-label\">")
			b.WriteString(html.EscapeString(item.Label))
			b.WriteString("</td><td>")
			b.WriteString(formatFloat(item.TotalQuantity))
			b.WriteString("</td></tr>")
		}
		b.WriteString("</tbody></table></section>")
	}

	if len(payload.Ranking) > 0 {
		b.WriteString("<section><h2>Supplier Ranking</h2><table><thead><tr><th>Supplier</th><th>Score</th></tr></thead><tbody>")
		for _, entity := range payload.Ranking {
			b.WriteString("<tr><td class=\"row-label\">")
			b.WriteString(html.EscapeString(entity.DisplayName))
			b.WriteString("</td><td>")
			b.WriteString(formatFloat(entity.Score))
			b.WriteString("</td></tr>")
		}
		b.WriteString("</tbody></table></section>")
	}

	b.WriteString("</body></html>")
	return b.String()
}
