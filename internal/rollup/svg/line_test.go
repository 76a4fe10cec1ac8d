package svg

import (
	"strings"
	"testing"

	"github.com/atelier-erp/atelier-erp/internal/rollup"
)

func TestLineProducesSVG(t *testing.T) {
	buckets := []rollup.MonthBucket{
		{Label: "Mar", Count: 12, Sum: 3400},
		{Label: "Apr", Count: 18, Sum: 5100},
		{Label: "May", Count: 9, Sum: 2200},
	}
	html, err := Line(400, 200, buckets, LineOpts{
		Title:       "Order Volume",
		Description: "Orders per month",
	})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if !strings.Contains(output, "<path") {
		t.Fatalf("expected path element in svg")
	}
	if !strings.Contains(output, "<circle") {
		t.Fatalf("expected month markers in svg")
	}
	if !strings.Contains(output, ">Apr</text>") {
		t.Fatalf("expected month label in svg")
	}
	if !strings.Contains(output, countStroke) {
		t.Fatalf("expected count palette in svg")
	}
	if !strings.Contains(output, "aria-labelledby") {
		t.Fatalf("expected accessibility attributes")
	}
}

func TestLineSpendVariant(t *testing.T) {
	buckets := []rollup.MonthBucket{
		{Label: "Jul", Count: 2, Sum: 1500},
		{Label: "Aug", Count: 4, Sum: 4800},
	}
	html, err := Line(400, 200, buckets, LineOpts{Title: "Spend", Spend: true})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	output := string(html)
	if !strings.Contains(output, spendStroke) {
		t.Fatalf("expected spend palette in svg")
	}
	if !strings.Contains(output, "4.8k") {
		t.Fatalf("expected spend-scaled tick in svg, got %s", output)
	}
}

func TestLineRequiresBuckets(t *testing.T) {
	if _, err := Line(400, 200, nil, LineOpts{}); err == nil {
		t.Fatalf("expected error for empty buckets")
	}
}
