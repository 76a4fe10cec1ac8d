package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/atelier-erp/atelier-erp/internal/rollup"
)

// Dashboard palettes for the month-series chart.
const (
	countStroke = "#2563eb"
	countFill   = "rgba(37,99,235,0.12)"
	spendStroke = "#059669"
	spendFill   = "rgba(5,150,105,0.12)"
	axisColor   = "#475569"
	gridColor   = "#cbd5f5"
)

type point struct {
	x float64
	y float64
}

// Line renders the trailing-month bucket series as an accessible SVG line
// chart. Order counts are plotted by default; opts.Spend switches to the
// bucket sums with the spend palette.
func Line(width, height int, buckets []rollup.MonthBucket, opts LineOpts) (template.HTML, error) {
	if len(buckets) == 0 {
		return "", fmt.Errorf("svg: buckets required")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	series := make([]float64, len(buckets))
	labels := make([]string, len(buckets))
	for i, bucket := range buckets {
		if opts.Spend {
			series[i] = bucket.Sum
		} else {
			series[i] = float64(bucket.Count)
		}
		labels[i] = bucket.Label
	}
	stroke, fill := countStroke, countFill
	if opts.Spend {
		stroke, fill = spendStroke, spendFill
	}

	padding := DefaultPadding
	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	minVal, maxVal := bounds(series)
	if minVal > 0 {
		minVal = 0
	}
	if almostEqual(maxVal, minVal) {
		maxVal = minVal + 1
	}
	scale := chartHeight / (maxVal - minVal)

	points := make([]point, len(series))
	for i, value := range series {
		x := padding + chartWidth/2
		if len(series) > 1 {
			x = padding + float64(i)*chartWidth/float64(len(series)-1)
		}
		points[i] = point{x: x, y: padding + chartHeight - (value-minVal)*scale}
	}

	var path strings.Builder
	for i, p := range points {
		if i == 0 {
			path.WriteString(fmt.Sprintf("M%.2f %.2f", p.x, p.y))
		} else {
			path.WriteString(fmt.Sprintf(" L%.2f %.2f", p.x, p.y))
		}
	}

	titleID := makeID(opts.Title, "line-title")
	descID := makeID(opts.Title, "line-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Monthly orders"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Orders per calendar month"))))

	// Grid lines and ticks
	for i := 0; i <= DefaultTicks; i++ {
		ratio := float64(i) / float64(DefaultTicks)
		y := padding + chartHeight - ratio*chartHeight
		value := minVal + (maxVal-minVal)*ratio
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", padding, y, padding+chartWidth, y, gridColor))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", padding-6, y+4, axisColor, template.HTMLEscapeString(formatTick(value))))
	}

	// Axes
	b.WriteString(fmt.Sprintf("<g stroke=\"%s\" aria-label=\"Axes\">", axisColor))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding, padding, padding+chartHeight))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding+chartHeight, padding+chartWidth, padding+chartHeight))
	b.WriteString("</g>")

	// Area under line
	base := padding + chartHeight
	area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", path.String(), points[len(points)-1].x, base, points[0].x, base)
	b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"%s\" stroke=\"none\" aria-hidden=\"true\"></path>", area, fill))

	b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\"></path>", path.String(), stroke))

	// Month markers and labels
	for i, p := range points {
		b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"></circle>", p.x, p.y, stroke))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", p.x, base+14, axisColor, template.HTMLEscapeString(labels[i])))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func bounds(series []float64) (float64, float64) {
	minVal := series[0]
	maxVal := series[0]
	for _, v := range series[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return fmt.Sprintf("%s-%s", cleaned, suffix)
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	default:
		if almostEqual(v, math.Round(v)) {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprintf("%.2f", v)
	}
}
