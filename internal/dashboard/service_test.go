package dashboard

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/atelier-erp/atelier-erp/internal/rollup"
)

type mockSources struct {
	orderRecords    []rollup.RawRecord
	orderCalls      int
	orderSince      time.Time
	ratings         []rollup.RatedEntity
	ratingCalls     int
	supplierRecords []rollup.RawRecord
	supplierCalls   int
	disposalRecords []rollup.RawRecord
	disposalCalls   int
}

func (m *mockSources) ListRecords(ctx context.Context, since time.Time) ([]rollup.RawRecord, error) {
	m.orderCalls++
	m.orderSince = since
	return m.orderRecords, nil
}

func (m *mockSources) ListRatings(ctx context.Context) ([]rollup.RatedEntity, error) {
	m.ratingCalls++
	return m.ratings, nil
}

func (m *mockSources) ListDisposalRecords(ctx context.Context, since time.Time) ([]rollup.RawRecord, error) {
	m.disposalCalls++
	return m.disposalRecords, nil
}

// supplierSource adapts mockSources to the supplier listing signature, which
// takes no window argument.
type supplierSource struct {
	*mockSources
}

func (s supplierSource) ListRecords(ctx context.Context) ([]rollup.RawRecord, error) {
	s.supplierCalls++
	return s.supplierRecords, nil
}

func newTestService(t *testing.T, src *mockSources) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(src, supplierSource{src}, src, cache, Options{WindowMonths: 6, TopN: 3})
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func fixedRef() time.Time {
	return time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
}

func TestMonthlyOrdersCaches(t *testing.T) {
	src := &mockSources{
		orderRecords: []rollup.RawRecord{
			{"id": "po-1", "totalAmount": 1200.0, "createdAt": "2025-08-02T10:00:00Z", "status": "COMPLETED"},
			{"orderId": "po-2", "amount": "450.50", "orderDate": "2025-06-20", "approvalStatus": "PENDING"},
		},
	}
	svc, cleanup := newTestService(t, src)
	defer cleanup()
	svc.WithNow(fixedRef)

	ctx := context.Background()
	buckets, err := svc.MonthlyOrders(ctx, fixedRef())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buckets) != 6 {
		t.Fatalf("expected 6 buckets, got %d", len(buckets))
	}
	if buckets[5].Label != "Aug" || buckets[5].Count != 1 || buckets[5].Sum != 1200 {
		t.Fatalf("unexpected august bucket %+v", buckets[5])
	}
	if buckets[3].Label != "Jun" || buckets[3].Count != 1 {
		t.Fatalf("unexpected june bucket %+v", buckets[3])
	}
	if src.orderCalls != 1 {
		t.Fatalf("expected 1 source call, got %d", src.orderCalls)
	}
	wantSince := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if !src.orderSince.Equal(wantSince) {
		t.Fatalf("expected since %s, got %s", wantSince, src.orderSince)
	}

	// Second call should hit cache.
	if _, err := svc.MonthlyOrders(ctx, fixedRef()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.orderCalls != 1 {
		t.Fatalf("expected cached result, source called %d times", src.orderCalls)
	}

	// Bumping the cache should trigger reload.
	if err := svc.cache.Bump(ctx); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	if _, err := svc.MonthlyOrders(ctx, fixedRef()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.orderCalls != 2 {
		t.Fatalf("expected source to refresh, calls %d", src.orderCalls)
	}
}

func TestCompletedSpendFiltersStatus(t *testing.T) {
	src := &mockSources{
		orderRecords: []rollup.RawRecord{
			{"id": "po-1", "totalAmount": 1000.0, "createdAt": "2025-08-02T10:00:00Z", "status": "Completed"},
			{"id": "po-2", "totalAmount": 500.0, "createdAt": "2025-08-03T10:00:00Z", "status": "PENDING"},
		},
	}
	svc, cleanup := newTestService(t, src)
	defer cleanup()
	svc.WithNow(fixedRef)

	buckets, err := svc.CompletedSpend(context.Background(), fixedRef())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buckets[5].Count != 1 || buckets[5].Sum != 1000 {
		t.Fatalf("expected only completed spend, got %+v", buckets[5])
	}
}

func TestStatusBreakdownKeepsZeroLabels(t *testing.T) {
	src := &mockSources{
		orderRecords: []rollup.RawRecord{
			{"id": "po-1", "createdAt": "2025-08-02T10:00:00Z", "status": "pending"},
			{"id": "po-2", "createdAt": "2025-08-03T10:00:00Z", "status": "SHIPPED"},
		},
	}
	svc, cleanup := newTestService(t, src)
	defer cleanup()
	svc.WithNow(fixedRef)

	counts, err := svc.StatusBreakdown(context.Background(), fixedRef())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(counts) != len(orderStatusLabels) {
		t.Fatalf("expected %d labels, got %d", len(orderStatusLabels), len(counts))
	}
	byLabel := map[string]int{}
	for _, c := range counts {
		byLabel[c.Label] = c.Count
	}
	if byLabel["Pending"] != 1 {
		t.Fatalf("expected pending count 1, got %d", byLabel["Pending"])
	}
	if byLabel["Completed"] != 0 {
		t.Fatalf("expected completed count 0, got %d", byLabel["Completed"])
	}
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	if total != 1 {
		t.Fatalf("expected the unrecognised status to be excluded, total %d", total)
	}
}

func TestSupplierRankingTruncates(t *testing.T) {
	src := &mockSources{
		ratings: []rollup.RatedEntity{
			{ID: "s1", DisplayName: "Nordic Timber", Score: 4.8},
			{ID: "s2", DisplayName: "Glazing Co", Score: 3.1},
			{ID: "s3", DisplayName: "Brass Works", Score: 4.8},
			{ID: "s4", DisplayName: "Felt Studio", Score: 2.0},
		},
	}
	svc, cleanup := newTestService(t, src)
	defer cleanup()
	svc.WithNow(fixedRef)

	entities, err := svc.SupplierRanking(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 3 {
		t.Fatalf("expected top 3, got %d", len(entities))
	}
	if entities[0].ID != "s1" || entities[1].ID != "s3" {
		t.Fatalf("expected stable tie order, got %+v", entities)
	}
}

func TestSupplierStatusesCounts(t *testing.T) {
	src := &mockSources{
		supplierRecords: []rollup.RawRecord{
			{"id": "1", "companyName": "Nordic Timber", "status": "ACTIVE", "rating": 4.8},
			{"id": "2", "companyName": "Glazing Co", "status": "suspended", "rating": 3.1},
			{"id": "3", "companyName": "Felt Studio", "status": "ACTIVE", "rating": 2.0},
			{"id": "4", "companyName": "Shut Down Ltd", "status": "UNKNOWN"},
		},
	}
	svc, cleanup := newTestService(t, src)
	defer cleanup()
	svc.WithNow(fixedRef)

	ctx := context.Background()
	counts, err := svc.SupplierStatuses(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	byLabel := map[string]int{}
	for _, c := range counts {
		byLabel[c.Label] = c.Count
	}
	if byLabel["Active"] != 2 || byLabel["Suspended"] != 1 || byLabel["Archived"] != 0 {
		t.Fatalf("unexpected distribution %+v", counts)
	}

	// Second call should hit cache.
	if _, err := svc.SupplierStatuses(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.supplierCalls != 1 {
		t.Fatalf("expected cached result, source called %d times", src.supplierCalls)
	}
}

func TestSnapshotAssemblesSections(t *testing.T) {
	src := &mockSources{
		orderRecords: []rollup.RawRecord{
			{"id": "po-1", "totalAmount": 750.0, "createdAt": "2025-07-10T08:00:00Z", "status": "Approved",
				"items": []any{map[string]any{"materialType": "Oak Veneer", "quantity": 12.0}}},
		},
		ratings: []rollup.RatedEntity{{ID: "s1", DisplayName: "Nordic Timber", Score: 4.8}},
		supplierRecords: []rollup.RawRecord{
			{"id": "1", "companyName": "Nordic Timber", "status": "ACTIVE", "rating": 4.8},
		},
		disposalRecords: []rollup.RawRecord{
			{"id": "d-1", "date": "2025-08-01", "reason": "DAMAGED", "quantity": 3.0},
		},
	}
	svc, cleanup := newTestService(t, src)
	defer cleanup()
	svc.WithNow(fixedRef)

	snap, err := svc.Snapshot(context.Background(), fixedRef())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.WindowMonths != 6 {
		t.Fatalf("expected window 6, got %d", snap.WindowMonths)
	}
	if len(snap.Monthly) != 6 || len(snap.CompletedSpend) != 6 {
		t.Fatalf("expected 6 month buckets in both series")
	}
	if len(snap.TopMaterials) != 1 || snap.TopMaterials[0].Label != "Oak Veneer" {
		t.Fatalf("unexpected top materials %+v", snap.TopMaterials)
	}
	if len(snap.SupplierRanking) != 1 {
		t.Fatalf("expected one ranked supplier")
	}
	if len(snap.SupplierStatuses) != 3 || snap.SupplierStatuses[0].Count != 1 {
		t.Fatalf("unexpected supplier statuses %+v", snap.SupplierStatuses)
	}
	byReason := map[string]int{}
	for _, c := range snap.DisposalReasons {
		byReason[c.Label] = c.Count
	}
	if byReason["Damaged"] != 1 {
		t.Fatalf("expected one damaged disposal, got %+v", snap.DisposalReasons)
	}
}

func TestRefreshBumpsVersion(t *testing.T) {
	src := &mockSources{}
	svc, cleanup := newTestService(t, src)
	defer cleanup()
	svc.WithNow(fixedRef)

	ctx := context.Background()
	before, err := svc.cache.Version(ctx)
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh error: %v", err)
	}
	after, err := svc.cache.Version(ctx)
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if after != before+1 {
		t.Fatalf("expected version bump from %d, got %d", before, after)
	}
	if src.orderCalls == 0 {
		t.Fatalf("expected refresh to warm the order sections")
	}
}
