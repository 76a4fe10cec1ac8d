package dashboard

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/observability"
	"github.com/atelier-erp/atelier-erp/internal/rollup"
)

// OrderSource lists purchase order records raised since the given instant.
type OrderSource interface {
	ListRecords(ctx context.Context, since time.Time) ([]rollup.RawRecord, error)
}

// SupplierSource exposes weighted supplier scores for ranking and the raw
// supplier listing for the status distribution widget.
type SupplierSource interface {
	ListRatings(ctx context.Context) ([]rollup.RatedEntity, error)
	ListRecords(ctx context.Context) ([]rollup.RawRecord, error)
}

// DisposalSource lists stock disposal records raised since the given instant.
type DisposalSource interface {
	ListDisposalRecords(ctx context.Context, since time.Time) ([]rollup.RawRecord, error)
}

// Field probe lists for each upstream payload shape. Orders and disposals come
// from different endpoints that never agreed on field names, so every canonical
// field carries the known aliases.
var (
	orderFields = rollup.FieldCandidates{
		ID:           []string{"id", "orderId", "purchaseOrderId"},
		Timestamp:    []string{"createdAt", "orderDate", "date", "created_at"},
		Amount:       []string{"totalAmount", "amount", "totalPrice", "total"},
		Status:       []string{"status", "approvalStatus", "state"},
		LineItems:    "items",
		ItemLabel:    []string{"materialType", "material", "name", "label"},
		ItemQuantity: []string{"quantity", "qty"},
	}

	disposalFields = rollup.FieldCandidates{
		ID:           []string{"id", "disposalId"},
		Timestamp:    []string{"date", "disposedAt", "createdAt"},
		Amount:       []string{"amount", "quantity", "qty"},
		Status:       []string{"status", "reason"},
		LineItems:    "items",
		ItemLabel:    []string{"material", "materialType", "name"},
		ItemQuantity: []string{"quantity", "qty"},
	}

	supplierFields = rollup.FieldCandidates{
		ID:        []string{"id", "supplierId"},
		Timestamp: []string{"createdAt", "created_at"},
		Amount:    []string{"rating"},
		Status:    []string{"status", "state"},
	}
)

// Status labels surfaced on the dashboard widgets. Matching is
// case-insensitive; records outside these sets are dropped from the widget.
var (
	orderStatusLabels    = []string{"Draft", "Pending", "Approved", "Completed", "Rejected", "Cancelled"}
	disposalReasonLabels = []string{"Damaged", "Expired", "Obsolete"}
	supplierStatusLabels = []string{"Active", "Suspended", "Archived"}
)

// Snapshot is the full dashboard payload served to clients and exports.
type Snapshot struct {
	GeneratedAt      time.Time              `json:"generatedAt"`
	WindowMonths     int                    `json:"windowMonths"`
	Monthly          []rollup.MonthBucket   `json:"monthly"`
	CompletedSpend   []rollup.MonthBucket   `json:"completedSpend"`
	StatusBreakdown  []rollup.StatusCount   `json:"statusBreakdown"`
	TopMaterials     []rollup.LabelQuantity `json:"topMaterials"`
	SupplierRanking  []rollup.RatedEntity   `json:"supplierRanking"`
	SupplierStatuses []rollup.StatusCount   `json:"supplierStatuses"`
	DisposalReasons  []rollup.StatusCount   `json:"disposalReasons"`
}

// Options tunes the service defaults.
type Options struct {
	Logger       *slog.Logger
	Metrics      *observability.Metrics
	WindowMonths int
	TopN         int
}

// Service coordinates rollup computation over the record sources with the
// cache layer.
type Service struct {
	orders    OrderSource
	suppliers SupplierSource
	disposals DisposalSource
	cache     *Cache
	logger    *slog.Logger
	metrics   *observability.Metrics
	window    int
	topN      int
	now       func() time.Time
}

// NewService wires the record sources with a Cache helper.
func NewService(orders OrderSource, suppliers SupplierSource, disposals DisposalSource, cache *Cache, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	window := opts.WindowMonths
	if window <= 0 {
		window = 6
	}
	topN := opts.TopN
	if topN < 0 {
		topN = 0
	}
	return &Service{
		orders:    orders,
		suppliers: suppliers,
		disposals: disposals,
		cache:     cache,
		logger:    logger,
		metrics:   opts.Metrics,
		window:    window,
		topN:      topN,
		now:       time.Now,
	}
}

// WithNow pins the reference clock, primarily for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// WindowMonths reports the configured trailing window size.
func (s *Service) WindowMonths() int { return s.window }

// TopN reports the configured ranking depth.
func (s *Service) TopN() int { return s.topN }

// windowStart returns the first instant of the oldest month in the window.
func (s *Service) windowStart(ref time.Time) time.Time {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	return first.AddDate(0, -(s.window - 1), 0)
}

func (s *Service) observe(section string, started time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveRollup(section, time.Since(started))
	}
}

func (s *Service) orderRecords(ctx context.Context, ref time.Time) ([]rollup.TransactionRecord, error) {
	raw, err := s.orders.ListRecords(ctx, s.windowStart(ref))
	if err != nil {
		return nil, err
	}
	return rollup.Normalize(raw, orderFields, ref), nil
}

// MonthlyOrders returns per-month order counts and spend over the trailing
// window ending at ref.
func (s *Service) MonthlyOrders(ctx context.Context, ref time.Time) ([]rollup.MonthBucket, error) {
	if ref.IsZero() {
		ref = s.now().UTC()
	}
	loader := func(ctx context.Context) (interface{}, error) {
		started := time.Now()
		defer s.observe("monthly", started)
		records, err := s.orderRecords(ctx, ref)
		if err != nil {
			return nil, err
		}
		return rollup.BucketByMonth(records, s.window, ref, nil)
	}
	var buckets []rollup.MonthBucket
	if err := s.fetch(ctx, keyMonthly(s.window, ref), &buckets, loader); err != nil {
		return nil, err
	}
	return buckets, nil
}

// CompletedSpend returns per-month spend restricted to completed orders.
func (s *Service) CompletedSpend(ctx context.Context, ref time.Time) ([]rollup.MonthBucket, error) {
	if ref.IsZero() {
		ref = s.now().UTC()
	}
	loader := func(ctx context.Context) (interface{}, error) {
		started := time.Now()
		defer s.observe("completed_spend", started)
		records, err := s.orderRecords(ctx, ref)
		if err != nil {
			return nil, err
		}
		completed := func(r rollup.TransactionRecord) bool {
			return strings.EqualFold(r.Status, "completed")
		}
		return rollup.BucketByMonth(records, s.window, ref, completed)
	}
	var buckets []rollup.MonthBucket
	if err := s.fetch(ctx, keyMonthly(s.window, ref)+":completed", &buckets, loader); err != nil {
		return nil, err
	}
	return buckets, nil
}

// StatusBreakdown returns order counts per known status label. Records whose
// status matches none of the labels are excluded from the result; the count of
// exclusions is logged so unexpected upstream statuses stay visible.
func (s *Service) StatusBreakdown(ctx context.Context, ref time.Time) ([]rollup.StatusCount, error) {
	if ref.IsZero() {
		ref = s.now().UTC()
	}
	loader := func(ctx context.Context) (interface{}, error) {
		started := time.Now()
		defer s.observe("status", started)
		records, err := s.orderRecords(ctx, ref)
		if err != nil {
			return nil, err
		}
		counts := rollup.DistributionByStatus(records, orderStatusLabels)
		matched := 0
		for _, c := range counts {
			matched += c.Count
		}
		if excluded := len(records) - matched; excluded > 0 {
			s.logger.Warn("orders with unrecognised status excluded from breakdown",
				slog.Int("excluded", excluded),
				slog.Int("total", len(records)))
		}
		return counts, nil
	}
	var counts []rollup.StatusCount
	if err := s.fetch(ctx, keyDistribution(s.window, ref), &counts, loader); err != nil {
		return nil, err
	}
	return counts, nil
}

// TopMaterials returns the most demanded line item materials across the window.
func (s *Service) TopMaterials(ctx context.Context, ref time.Time) ([]rollup.LabelQuantity, error) {
	if ref.IsZero() {
		ref = s.now().UTC()
	}
	loader := func(ctx context.Context) (interface{}, error) {
		started := time.Now()
		defer s.observe("materials", started)
		records, err := s.orderRecords(ctx, ref)
		if err != nil {
			return nil, err
		}
		return rollup.TopByLineItemLabel(records, s.topN)
	}
	var items []rollup.LabelQuantity
	if err := s.fetch(ctx, keyTopMaterials(s.window, s.topN, ref), &items, loader); err != nil {
		return nil, err
	}
	return items, nil
}

// SupplierRanking returns the highest scored suppliers.
func (s *Service) SupplierRanking(ctx context.Context) ([]rollup.RatedEntity, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		started := time.Now()
		defer s.observe("ranking", started)
		ratings, err := s.suppliers.ListRatings(ctx)
		if err != nil {
			return nil, err
		}
		return rollup.RankEntities(ratings, s.topN)
	}
	var entities []rollup.RatedEntity
	if err := s.fetch(ctx, keyRanking(s.topN), &entities, loader); err != nil {
		return nil, err
	}
	return entities, nil
}

// SupplierStatuses returns the distribution of suppliers across lifecycle
// states. Supplier rows are not windowed; the whole book is counted.
func (s *Service) SupplierStatuses(ctx context.Context) ([]rollup.StatusCount, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		started := time.Now()
		defer s.observe("supplier_status", started)
		raw, err := s.suppliers.ListRecords(ctx)
		if err != nil {
			return nil, err
		}
		records := rollup.Normalize(raw, supplierFields, s.now().UTC())
		return rollup.DistributionByStatus(records, supplierStatusLabels), nil
	}
	var counts []rollup.StatusCount
	if err := s.fetch(ctx, keySupplierStatuses(), &counts, loader); err != nil {
		return nil, err
	}
	return counts, nil
}

// DisposalReasons returns disposal counts per reason over the window.
func (s *Service) DisposalReasons(ctx context.Context, ref time.Time) ([]rollup.StatusCount, error) {
	if ref.IsZero() {
		ref = s.now().UTC()
	}
	loader := func(ctx context.Context) (interface{}, error) {
		started := time.Now()
		defer s.observe("disposals", started)
		raw, err := s.disposals.ListDisposalRecords(ctx, s.windowStart(ref))
		if err != nil {
			return nil, err
		}
		records := rollup.Normalize(raw, disposalFields, ref)
		return rollup.DistributionByStatus(records, disposalReasonLabels), nil
	}
	var counts []rollup.StatusCount
	if err := s.fetch(ctx, keyDisposals(s.window, ref), &counts, loader); err != nil {
		return nil, err
	}
	return counts, nil
}

// Snapshot assembles every dashboard section for the window ending at ref.
func (s *Service) Snapshot(ctx context.Context, ref time.Time) (Snapshot, error) {
	if ref.IsZero() {
		ref = s.now().UTC()
	}
	monthly, err := s.MonthlyOrders(ctx, ref)
	if err != nil {
		return Snapshot{}, err
	}
	spend, err := s.CompletedSpend(ctx, ref)
	if err != nil {
		return Snapshot{}, err
	}
	statuses, err := s.StatusBreakdown(ctx, ref)
	if err != nil {
		return Snapshot{}, err
	}
	materials, err := s.TopMaterials(ctx, ref)
	if err != nil {
		return Snapshot{}, err
	}
	ranking, err := s.SupplierRanking(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	supplierStates, err := s.SupplierStatuses(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	disposals, err := s.DisposalReasons(ctx, ref)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		GeneratedAt:      s.now().UTC(),
		WindowMonths:     s.window,
		Monthly:          monthly,
		CompletedSpend:   spend,
		StatusBreakdown:  statuses,
		TopMaterials:     materials,
		SupplierRanking:  ranking,
		SupplierStatuses: supplierStates,
		DisposalReasons:  disposals,
	}, nil
}

// Refresh invalidates cached sections and recomputes the snapshot so the next
// reads are warm.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.cache.Bump(ctx); err != nil {
		return err
	}
	_, err := s.Snapshot(ctx, s.now().UTC())
	return err
}

// Cache exposes the underlying cache helper for invalidation wiring.
func (s *Service) Cache() *Cache { return s.cache }

func (s *Service) fetch(ctx context.Context, keyBase string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	key, err := s.cache.BuildKey(ctx, keyBase)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}
