package inventory

import (
	"context"
	"fmt"
	"time"
)

// RepositoryPort abstracts the repository for the service.
type RepositoryPort interface {
	GetStockItem(ctx context.Context, materialType string) (StockItem, error)
	ListStockItems(ctx context.Context) ([]StockItem, error)
	AdjustQuantity(ctx context.Context, materialType string, delta float64) (StockItem, error)
	InsertDisposal(ctx context.Context, record DisposalRecord) (DisposalRecord, error)
	InsertReorder(ctx context.Context, record ReorderRecord) (ReorderRecord, error)
	ListDisposals(ctx context.Context, since time.Time) ([]DisposalRecord, error)
	ListReorders(ctx context.Context, since time.Time) ([]ReorderRecord, error)
}

// Service coordinates inventory operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds the inventory service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// DisposalInput describes a write-off request.
type DisposalInput struct {
	MaterialType string
	Quantity     float64
	Reason       DisposalReason
	Note         string
}

// RecordDisposal writes off stock and logs the disposal.
func (s *Service) RecordDisposal(ctx context.Context, input DisposalInput) (DisposalRecord, error) {
	if input.Quantity <= 0 {
		return DisposalRecord{}, ErrInvalidQuantity
	}
	switch input.Reason {
	case DisposalReasonDamaged, DisposalReasonExpired, DisposalReasonObsolete:
	default:
		return DisposalRecord{}, fmt.Errorf("inventory: unknown disposal reason %q", input.Reason)
	}
	item, err := s.repo.GetStockItem(ctx, input.MaterialType)
	if err != nil {
		return DisposalRecord{}, err
	}
	if item.Quantity < input.Quantity {
		return DisposalRecord{}, ErrInsufficientStock
	}
	if _, err := s.repo.AdjustQuantity(ctx, input.MaterialType, -input.Quantity); err != nil {
		return DisposalRecord{}, err
	}
	return s.repo.InsertDisposal(ctx, DisposalRecord{
		MaterialType: input.MaterialType,
		Quantity:     input.Quantity,
		Reason:       input.Reason,
		Note:         input.Note,
		DisposedAt:   time.Now(),
	})
}

// RaiseReorder logs a replenishment request for a material.
func (s *Service) RaiseReorder(ctx context.Context, materialType string, quantity float64) (ReorderRecord, error) {
	if quantity <= 0 {
		return ReorderRecord{}, ErrInvalidQuantity
	}
	if _, err := s.repo.GetStockItem(ctx, materialType); err != nil {
		return ReorderRecord{}, err
	}
	return s.repo.InsertReorder(ctx, ReorderRecord{
		MaterialType: materialType,
		Quantity:     quantity,
		Status:       "REQUESTED",
		RequestedAt:  time.Now(),
	})
}

// ReceiveStock books received goods into the warehouse.
func (s *Service) ReceiveStock(ctx context.Context, materialType string, quantity float64) (StockItem, error) {
	if quantity <= 0 {
		return StockItem{}, ErrInvalidQuantity
	}
	return s.repo.AdjustQuantity(ctx, materialType, quantity)
}

// LowStock lists items at or below their reorder level.
func (s *Service) LowStock(ctx context.Context) ([]StockItem, error) {
	items, err := s.repo.ListStockItems(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]StockItem, 0)
	for _, item := range items {
		if item.Quantity <= item.ReorderLevel {
			low = append(low, item)
		}
	}
	return low, nil
}

// ListDisposals exposes the disposal log for reports.
func (s *Service) ListDisposals(ctx context.Context, since time.Time) ([]DisposalRecord, error) {
	return s.repo.ListDisposals(ctx, since)
}

// ListReorders exposes the reorder log for reports.
func (s *Service) ListReorders(ctx context.Context, since time.Time) ([]ReorderRecord, error) {
	return s.repo.ListReorders(ctx, since)
}
