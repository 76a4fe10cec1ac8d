package svg

import (
	"strings"
	"testing"
)

func TestBarsProducesSVG(t *testing.T) {
	html, err := Bars(420, 220, []float64{5, 12, 3, 1}, []string{"Pending", "Approved", "Completed", "Rejected"}, BarOpts{
		Title:       "Order Status",
		Description: "Orders by status",
		SeriesLabel: "Orders",
	})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if !strings.Contains(output, "<rect") {
		t.Fatalf("expected rect bars in svg")
	}
	if !strings.Contains(output, "Orders") {
		t.Fatalf("expected legend label")
	}
}

func TestBarsRejectsEmptySeries(t *testing.T) {
	if _, err := Bars(420, 220, nil, []string{"A"}, BarOpts{}); err == nil {
		t.Fatalf("expected error for empty series")
	}
}
