package svg

// LineOpts customises the month-series line chart.
type LineOpts struct {
	Title       string
	Description string
	// Spend plots the bucket sums instead of the order counts.
	Spend bool
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	SeriesLabel string
	Color       string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 24.0
	DefaultTicks   = 6
)
