package dashboardhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-erp/atelier-erp/internal/rollup"
	"github.com/atelier-erp/atelier-erp/internal/rollup/export"
)

type stubService struct {
	monthly        []rollup.MonthBucket
	spend          []rollup.MonthBucket
	statuses       []rollup.StatusCount
	materials      []rollup.LabelQuantity
	ranking        []rollup.RatedEntity
	supplierStates []rollup.StatusCount
	disposals      []rollup.StatusCount
	lastRef        time.Time
}

func (s *stubService) MonthlyOrders(ctx context.Context, ref time.Time) ([]rollup.MonthBucket, error) {
	s.lastRef = ref
	return s.monthly, nil
}

func (s *stubService) CompletedSpend(ctx context.Context, ref time.Time) ([]rollup.MonthBucket, error) {
	return s.spend, nil
}

func (s *stubService) StatusBreakdown(ctx context.Context, ref time.Time) ([]rollup.StatusCount, error) {
	return s.statuses, nil
}

func (s *stubService) TopMaterials(ctx context.Context, ref time.Time) ([]rollup.LabelQuantity, error) {
	return s.materials, nil
}

func (s *stubService) SupplierRanking(ctx context.Context) ([]rollup.RatedEntity, error) {
	return s.ranking, nil
}

func (s *stubService) SupplierStatuses(ctx context.Context) ([]rollup.StatusCount, error) {
	return s.supplierStates, nil
}

func (s *stubService) DisposalReasons(ctx context.Context, ref time.Time) ([]rollup.StatusCount, error) {
	return s.disposals, nil
}

func (s *stubService) WindowMonths() int { return 6 }

type stubPDF struct {
	payload export.DashboardPayload
}

func (s *stubPDF) RenderDashboard(ctx context.Context, payload export.DashboardPayload) ([]byte, error) {
	s.payload = payload
	return []byte("PDF"), nil
}

func fixtureService() *stubService {
	return &stubService{
		monthly: []rollup.MonthBucket{
			{Label: "Jul", Count: 3, Sum: 900},
			{Label: "Aug", Count: 1, Sum: 250},
		},
		spend: []rollup.MonthBucket{
			{Label: "Jul", Count: 2, Sum: 600},
			{Label: "Aug", Count: 0, Sum: 0},
		},
		statuses:       []rollup.StatusCount{{Label: "Pending", Count: 2}, {Label: "Completed", Count: 2}},
		materials:      []rollup.LabelQuantity{{Label: "Oak Veneer", TotalQuantity: 14}},
		ranking:        []rollup.RatedEntity{{ID: "s1", DisplayName: "Nordic Timber", Score: 4.8}},
		supplierStates: []rollup.StatusCount{{Label: "Active", Count: 3}, {Label: "Suspended", Count: 1}},
		disposals:      []rollup.StatusCount{{Label: "Damaged", Count: 1}},
	}
}

func newTestRouter(svc DashboardService, pdf PDFService) http.Handler {
	h := NewHandler(nil, svc, pdf)
	h.WithNow(func() time.Time { return time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC) })
	r := chi.NewRouter()
	r.Route("/api/dashboard", func(sr chi.Router) {
		h.MountRoutes(sr)
	})
	return r
}

func TestDashboardReturnsJSON(t *testing.T) {
	svc := fixtureService()
	router := newTestRouter(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp dashboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.WindowMonths != 6 {
		t.Fatalf("expected window 6, got %d", resp.WindowMonths)
	}
	if resp.Period != "2025-08" {
		t.Fatalf("expected default period, got %s", resp.Period)
	}
	if len(resp.Monthly) != 2 || resp.Monthly[0].Label != "Jul" {
		t.Fatalf("unexpected monthly payload %+v", resp.Monthly)
	}
	if len(resp.SupplierRanking) != 1 {
		t.Fatalf("expected ranking in payload")
	}
	if len(resp.SupplierStatuses) != 2 || resp.SupplierStatuses[0].Label != "Active" {
		t.Fatalf("unexpected supplier statuses %+v", resp.SupplierStatuses)
	}
}

func TestDashboardRejectsBadPeriod(t *testing.T) {
	router := newTestRouter(fixtureService(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?period=august", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDashboardPeriodPinsReference(t *testing.T) {
	svc := fixtureService()
	router := newTestRouter(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?period=2025-03", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastRef.Year() != 2025 || svc.lastRef.Month() != time.March {
		t.Fatalf("expected march reference, got %s", svc.lastRef)
	}
}

func TestCSVExport(t *testing.T) {
	router := newTestRouter(fixtureService(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/export.csv", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %s", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Oak Veneer") {
		t.Fatalf("expected materials section in csv, got %s", body)
	}
	if !strings.Contains(body, "Nordic Timber") {
		t.Fatalf("expected ranking section in csv")
	}
}

func TestPDFExport(t *testing.T) {
	pdf := &stubPDF{}
	router := newTestRouter(fixtureService(), pdf)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/pdf?period=2025-07", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "PDF" {
		t.Fatalf("expected pdf bytes, got %q", rec.Body.String())
	}
	if pdf.payload.Period != "2025-07" {
		t.Fatalf("expected payload period 2025-07, got %s", pdf.payload.Period)
	}
}

func TestOrdersChartServesSVG(t *testing.T) {
	router := newTestRouter(fixtureService(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/charts/orders.svg", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Fatalf("unexpected content type %s", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "<svg") {
		t.Fatalf("expected svg markup")
	}
}
