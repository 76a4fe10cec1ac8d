package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	items     map[string]StockItem
	disposals []DisposalRecord
	reorders  []ReorderRecord
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[string]StockItem)}
}

func (r *memoryRepo) GetStockItem(ctx context.Context, materialType string) (StockItem, error) {
	item, ok := r.items[materialType]
	if !ok {
		return StockItem{}, ErrNotFound
	}
	return item, nil
}

func (r *memoryRepo) ListStockItems(ctx context.Context) ([]StockItem, error) {
	out := make([]StockItem, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, nil
}

func (r *memoryRepo) AdjustQuantity(ctx context.Context, materialType string, delta float64) (StockItem, error) {
	item, ok := r.items[materialType]
	if !ok {
		return StockItem{}, ErrNotFound
	}
	item.Quantity += delta
	r.items[materialType] = item
	return item, nil
}

func (r *memoryRepo) InsertDisposal(ctx context.Context, record DisposalRecord) (DisposalRecord, error) {
	r.nextID++
	record.ID = r.nextID
	r.disposals = append(r.disposals, record)
	return record, nil
}

func (r *memoryRepo) InsertReorder(ctx context.Context, record ReorderRecord) (ReorderRecord, error) {
	r.nextID++
	record.ID = r.nextID
	r.reorders = append(r.reorders, record)
	return record, nil
}

func (r *memoryRepo) ListDisposals(ctx context.Context, since time.Time) ([]DisposalRecord, error) {
	return r.disposals, nil
}

func (r *memoryRepo) ListReorders(ctx context.Context, since time.Time) ([]ReorderRecord, error) {
	return r.reorders, nil
}

func TestRecordDisposalReducesStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.items["Oak"] = StockItem{MaterialType: "Oak", Quantity: 10}
	svc := NewService(repo)

	record, err := svc.RecordDisposal(context.Background(), DisposalInput{
		MaterialType: "Oak",
		Quantity:     4,
		Reason:       DisposalReasonDamaged,
	})
	require.NoError(t, err)
	require.Equal(t, 4.0, record.Quantity)
	require.Equal(t, 6.0, repo.items["Oak"].Quantity)
	require.Len(t, repo.disposals, 1)
}

func TestRecordDisposalGuards(t *testing.T) {
	repo := newMemoryRepo()
	repo.items["Oak"] = StockItem{MaterialType: "Oak", Quantity: 2}
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.RecordDisposal(ctx, DisposalInput{MaterialType: "Oak", Quantity: 0, Reason: DisposalReasonExpired})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.RecordDisposal(ctx, DisposalInput{MaterialType: "Oak", Quantity: 5, Reason: DisposalReasonExpired})
	require.ErrorIs(t, err, ErrInsufficientStock)

	_, err = svc.RecordDisposal(ctx, DisposalInput{MaterialType: "Oak", Quantity: 1, Reason: "SHRUNK"})
	require.Error(t, err)

	_, err = svc.RecordDisposal(ctx, DisposalInput{MaterialType: "Teak", Quantity: 1, Reason: DisposalReasonExpired})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLowStockUsesReorderLevel(t *testing.T) {
	repo := newMemoryRepo()
	repo.items["Oak"] = StockItem{MaterialType: "Oak", Quantity: 3, ReorderLevel: 5}
	repo.items["Glass"] = StockItem{MaterialType: "Glass", Quantity: 50, ReorderLevel: 5}
	svc := NewService(repo)

	low, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, low, 1)
	require.Equal(t, "Oak", low[0].MaterialType)
}

func TestRaiseReorderRequiresKnownMaterial(t *testing.T) {
	repo := newMemoryRepo()
	repo.items["Oak"] = StockItem{MaterialType: "Oak", Quantity: 1}
	svc := NewService(repo)

	record, err := svc.RaiseReorder(context.Background(), "Oak", 20)
	require.NoError(t, err)
	require.Equal(t, "REQUESTED", record.Status)

	_, err = svc.RaiseReorder(context.Background(), "Teak", 20)
	require.ErrorIs(t, err, ErrNotFound)
}
