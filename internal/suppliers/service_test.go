package suppliers

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
	"github.com/atelier-erp/atelier-erp/internal/rollup"
)

type memoryRepo struct {
	suppliers map[int64]Supplier
	ratings   []rollup.RatedEntity
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{suppliers: make(map[int64]Supplier)}
}

func (r *memoryRepo) List(ctx context.Context, filters ListFilters) ([]Supplier, int, error) {
	out := make([]Supplier, 0, len(r.suppliers))
	for _, s := range r.suppliers {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return Supplier{}, httpx.ErrNotFound
	}
	return s, nil
}

func (r *memoryRepo) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	for _, existing := range r.suppliers {
		if existing.Code == supplier.Code {
			return Supplier{}, httpx.ErrDuplicate
		}
	}
	r.nextID++
	supplier.ID = r.nextID
	r.suppliers[supplier.ID] = supplier
	return supplier, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, supplier Supplier) error {
	if _, ok := r.suppliers[id]; !ok {
		return httpx.ErrNotFound
	}
	supplier.ID = id
	r.suppliers[id] = supplier
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.suppliers[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.suppliers, id)
	return nil
}

func (r *memoryRepo) ListRatings(ctx context.Context) ([]rollup.RatedEntity, error) {
	return r.ratings, nil
}

func (r *memoryRepo) ListRecords(ctx context.Context) ([]rollup.RawRecord, error) {
	list, _, _ := r.List(ctx, ListFilters{})
	records := make([]rollup.RawRecord, 0, len(list))
	for _, s := range list {
		records = append(records, rollup.RawRecord{"id": strconv.FormatInt(s.ID, 10), "companyName": s.CompanyName, "status": s.Status})
	}
	return records, nil
}

func TestCreateValidatesSupplier(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Supplier{CompanyName: "No Code"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, Supplier{Code: "SUP-1", CompanyName: "Rated", Rating: 5.5})
	require.ErrorIs(t, err, httpx.ErrValidation)

	created, err := svc.Create(ctx, Supplier{Code: "SUP-1", CompanyName: "Meadow Timber", Rating: 4.1})
	require.NoError(t, err)
	require.Equal(t, StatusActive, created.Status, "status defaults to active")
	require.NotZero(t, created.ID)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Supplier{Code: "SUP-1", CompanyName: "First"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Supplier{Code: "SUP-1", CompanyName: "Second"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestTopRatedKeepsTieOrderAndZeroScores(t *testing.T) {
	repo := newMemoryRepo()
	repo.ratings = []rollup.RatedEntity{
		{ID: "1", DisplayName: "Alpha Supplies", Score: 4.2},
		{ID: "2", DisplayName: "Borealis Interiors", Score: 4.2},
		{ID: "3", DisplayName: "Cedar & Co", Score: 4.9},
		{ID: "4", DisplayName: "Unrated Ltd", Score: 0},
	}
	svc := NewService(repo)

	ranked, err := svc.TopRated(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, "Cedar & Co", ranked[0].DisplayName)
	require.Equal(t, "Alpha Supplies", ranked[1].DisplayName)
	require.Equal(t, "Borealis Interiors", ranked[2].DisplayName)
	require.Equal(t, "Unrated Ltd", ranked[3].DisplayName)

	_, err = svc.TopRated(context.Background(), -1)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestGetRejectsInvalidID(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, err := svc.Get(context.Background(), 0)
	require.ErrorIs(t, err, httpx.ErrValidation)
}
