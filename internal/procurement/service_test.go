package procurement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryProcRepo struct {
	pos     map[int64]PurchaseOrder
	poLines map[int64][]POLine
	nextID  int64
}

type memoryProcTx struct {
	repo *memoryProcRepo
}

func newMemoryProcRepo() *memoryProcRepo {
	return &memoryProcRepo{
		pos:     make(map[int64]PurchaseOrder),
		poLines: make(map[int64][]POLine),
	}
}

func (r *memoryProcRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryProcTx{repo: r})
}

func (r *memoryProcRepo) GetPO(ctx context.Context, id int64) (PurchaseOrder, []POLine, error) {
	po, ok := r.pos[id]
	if !ok {
		return PurchaseOrder{}, nil, ErrNotFound
	}
	return po, append([]POLine(nil), r.poLines[id]...), nil
}

func (r *memoryProcRepo) ListPOs(ctx context.Context, filter ListFilter) ([]PurchaseOrder, error) {
	var out []PurchaseOrder
	for _, po := range r.pos {
		if filter.Status != "" && po.Status != filter.Status {
			continue
		}
		out = append(out, po)
	}
	return out, nil
}

func (t *memoryProcTx) CreatePO(ctx context.Context, po PurchaseOrder) (int64, error) {
	t.repo.nextID++
	po.ID = t.repo.nextID
	po.CreatedAt = time.Now()
	t.repo.pos[po.ID] = po
	return po.ID, nil
}

func (t *memoryProcTx) CreatePOLines(ctx context.Context, poID int64, lines []POLine) error {
	t.repo.poLines[poID] = lines
	return nil
}

func (t *memoryProcTx) UpdatePOStatus(ctx context.Context, poID int64, status POStatus) error {
	po, ok := t.repo.pos[poID]
	if !ok {
		return ErrNotFound
	}
	po.Status = status
	t.repo.pos[poID] = po
	return nil
}

func (t *memoryProcTx) SetPOApproval(ctx context.Context, poID int64, actorID int64, at time.Time) error {
	po, ok := t.repo.pos[poID]
	if !ok {
		return ErrNotFound
	}
	po.ApprovedBy = actorID
	po.ApprovedAt = at
	t.repo.pos[poID] = po
	return nil
}

func createOrder(t *testing.T, svc *Service, total float64) PurchaseOrder {
	t.Helper()
	po, err := svc.CreatePurchaseOrder(context.Background(), CreatePOInput{
		SupplierID: 7,
		Lines:      []POLineInput{{MaterialType: "Oak", Quantity: 1, UnitPrice: total}},
	})
	require.NoError(t, err)
	return po
}

func TestCreatePurchaseOrderComputesTotal(t *testing.T) {
	svc := NewService(newMemoryProcRepo(), BudgetPolicy{})
	po, err := svc.CreatePurchaseOrder(context.Background(), CreatePOInput{
		SupplierID: 3,
		Lines: []POLineInput{
			{MaterialType: "Oak", Quantity: 4, UnitPrice: 125},
			{MaterialType: "Glass", Quantity: 2, UnitPrice: 80},
		},
	})
	require.NoError(t, err)
	require.Equal(t, POStatusDraft, po.Status)
	require.Equal(t, 660.0, po.TotalAmount)
	require.NotEmpty(t, po.Number)
}

func TestCreatePurchaseOrderValidation(t *testing.T) {
	svc := NewService(newMemoryProcRepo(), BudgetPolicy{})
	ctx := context.Background()

	_, err := svc.CreatePurchaseOrder(ctx, CreatePOInput{SupplierID: 1})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreatePurchaseOrder(ctx, CreatePOInput{
		SupplierID: 1,
		Lines:      []POLineInput{{MaterialType: "Oak", Quantity: -1, UnitPrice: 10}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestSubmitRoutesThroughBudgetApproval(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := NewService(repo, BudgetPolicy{AutoApproveLimit: 1000})
	ctx := context.Background()

	small := createOrder(t, svc, 500)
	status, err := svc.SubmitPurchaseOrder(ctx, small.ID, 42)
	require.NoError(t, err)
	require.Equal(t, POStatusApproved, status, "orders within the limit skip pending")
	require.Equal(t, int64(42), repo.pos[small.ID].ApprovedBy)

	big := createOrder(t, svc, 5000)
	status, err = svc.SubmitPurchaseOrder(ctx, big.ID, 42)
	require.NoError(t, err)
	require.Equal(t, POStatusPending, status, "orders above the limit wait for a manager")
}

func TestApproveRejectOnlyFromPending(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := NewService(repo, BudgetPolicy{})
	ctx := context.Background()

	po := createOrder(t, svc, 2000)
	require.ErrorIs(t, svc.ApprovePurchaseOrder(ctx, po.ID, 9), ErrInvalidState)

	_, err := svc.SubmitPurchaseOrder(ctx, po.ID, 9)
	require.NoError(t, err)
	require.NoError(t, svc.ApprovePurchaseOrder(ctx, po.ID, 9))
	require.Equal(t, POStatusApproved, repo.pos[po.ID].Status)

	other := createOrder(t, svc, 2000)
	_, err = svc.SubmitPurchaseOrder(ctx, other.ID, 9)
	require.NoError(t, err)
	require.NoError(t, svc.RejectPurchaseOrder(ctx, other.ID, 9))
	require.Equal(t, POStatusRejected, repo.pos[other.ID].Status)
}

func TestCompleteAndCancelTransitions(t *testing.T) {
	repo := newMemoryProcRepo()
	svc := NewService(repo, BudgetPolicy{AutoApproveLimit: 10000})
	ctx := context.Background()

	po := createOrder(t, svc, 100)
	_, err := svc.SubmitPurchaseOrder(ctx, po.ID, 1)
	require.NoError(t, err)
	require.NoError(t, svc.CompletePurchaseOrder(ctx, po.ID))
	require.Equal(t, POStatusCompleted, repo.pos[po.ID].Status)

	require.ErrorIs(t, svc.CancelPurchaseOrder(ctx, po.ID), ErrInvalidState)

	draft := createOrder(t, svc, 100)
	require.NoError(t, svc.CancelPurchaseOrder(ctx, draft.ID))
	require.Equal(t, POStatusCancelled, repo.pos[draft.ID].Status)
}

func TestSubmitMissingOrder(t *testing.T) {
	svc := NewService(newMemoryProcRepo(), BudgetPolicy{})
	_, err := svc.SubmitPurchaseOrder(context.Background(), 99, 1)
	require.ErrorIs(t, err, ErrNotFound)
}
