package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPO(ctx context.Context, id int64) (PurchaseOrder, []POLine, error)
	ListPOs(ctx context.Context, filter ListFilter) ([]PurchaseOrder, error)
}

// TxRepository exposes mutations inside one transaction.
type TxRepository interface {
	CreatePO(ctx context.Context, po PurchaseOrder) (int64, error)
	CreatePOLines(ctx context.Context, poID int64, lines []POLine) error
	UpdatePOStatus(ctx context.Context, poID int64, status POStatus) error
	SetPOApproval(ctx context.Context, poID int64, actorID int64, at time.Time) error
}

// ListFilter scopes purchase order listings.
type ListFilter struct {
	SupplierID int64
	Status     POStatus
	Since      time.Time
}

// Service orchestrates the purchase order lifecycle.
type Service struct {
	repo   RepositoryPort
	policy BudgetPolicy
}

// NewService constructs the procurement service.
func NewService(repo RepositoryPort, policy BudgetPolicy) *Service {
	return &Service{repo: repo, policy: policy}
}

// CreatePOInput describes the creation payload.
type CreatePOInput struct {
	Number     string
	SupplierID int64
	Note       string
	Lines      []POLineInput
}

// POLineInput describes an ordered line.
type POLineInput struct {
	MaterialType string
	Quantity     float64
	UnitPrice    float64
}

// CreatePurchaseOrder persists the PO header and lines in draft state.
func (s *Service) CreatePurchaseOrder(ctx context.Context, input CreatePOInput) (PurchaseOrder, error) {
	if input.SupplierID <= 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: supplier required", ErrValidation)
	}
	if len(input.Lines) == 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: at least one line required", ErrValidation)
	}
	var total float64
	lines := make([]POLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.MaterialType == "" {
			return PurchaseOrder{}, fmt.Errorf("%w: material type required", ErrValidation)
		}
		if line.Quantity <= 0 || line.UnitPrice < 0 {
			return PurchaseOrder{}, fmt.Errorf("%w: invalid quantity or price", ErrValidation)
		}
		total += line.Quantity * line.UnitPrice
		lines = append(lines, POLine{MaterialType: line.MaterialType, Quantity: line.Quantity, UnitPrice: line.UnitPrice})
	}
	if input.Number == "" {
		input.Number = generateNumber("PO")
	}
	po := PurchaseOrder{
		Number:      input.Number,
		SupplierID:  input.SupplierID,
		Status:      POStatusDraft,
		TotalAmount: total,
		Note:        input.Note,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		poID, err := tx.CreatePO(ctx, po)
		if err != nil {
			return err
		}
		po.ID = poID
		return tx.CreatePOLines(ctx, poID, lines)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	return po, nil
}

// SubmitPurchaseOrder moves a draft into the budget approval workflow. Orders
// within the auto-approve limit go straight to approved.
func (s *Service) SubmitPurchaseOrder(ctx context.Context, poID int64, actorID int64) (POStatus, error) {
	po, _, err := s.repo.GetPO(ctx, poID)
	if err != nil {
		return "", err
	}
	if po.Status != POStatusDraft {
		return "", ErrInvalidState
	}
	next := POStatusPending
	if s.policy.AutoApproveLimit > 0 && po.TotalAmount <= s.policy.AutoApproveLimit {
		next = POStatusApproved
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdatePOStatus(ctx, poID, next); err != nil {
			return err
		}
		if next == POStatusApproved {
			return tx.SetPOApproval(ctx, poID, actorID, time.Now())
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return next, nil
}

// ApprovePurchaseOrder records a manager approval for a pending order.
func (s *Service) ApprovePurchaseOrder(ctx context.Context, poID int64, actorID int64) error {
	return s.resolvePending(ctx, poID, actorID, POStatusApproved)
}

// RejectPurchaseOrder declines a pending order.
func (s *Service) RejectPurchaseOrder(ctx context.Context, poID int64, actorID int64) error {
	return s.resolvePending(ctx, poID, actorID, POStatusRejected)
}

func (s *Service) resolvePending(ctx context.Context, poID int64, actorID int64, outcome POStatus) error {
	po, _, err := s.repo.GetPO(ctx, poID)
	if err != nil {
		return err
	}
	if po.Status != POStatusPending {
		return ErrInvalidState
	}
	now := time.Now()
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdatePOStatus(ctx, poID, outcome); err != nil {
			return err
		}
		if outcome == POStatusApproved {
			return tx.SetPOApproval(ctx, poID, actorID, now)
		}
		return nil
	})
}

// CompletePurchaseOrder closes an approved order after goods arrive.
func (s *Service) CompletePurchaseOrder(ctx context.Context, poID int64) error {
	return s.transition(ctx, poID, POStatusApproved, POStatusCompleted)
}

// CancelPurchaseOrder cancels an order that has not completed yet.
func (s *Service) CancelPurchaseOrder(ctx context.Context, poID int64) error {
	po, _, err := s.repo.GetPO(ctx, poID)
	if err != nil {
		return err
	}
	switch po.Status {
	case POStatusDraft, POStatusPending, POStatusApproved:
	default:
		return ErrInvalidState
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdatePOStatus(ctx, poID, POStatusCancelled)
	})
}

func (s *Service) transition(ctx context.Context, poID int64, from, to POStatus) error {
	po, _, err := s.repo.GetPO(ctx, poID)
	if err != nil {
		return err
	}
	if po.Status != from {
		return ErrInvalidState
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdatePOStatus(ctx, poID, to)
	})
}

// GetPurchaseOrder loads a PO with its lines.
func (s *Service) GetPurchaseOrder(ctx context.Context, poID int64) (PurchaseOrder, []POLine, error) {
	return s.repo.GetPO(ctx, poID)
}

// ListPurchaseOrders lists orders matching the filter.
func (s *Service) ListPurchaseOrders(ctx context.Context, filter ListFilter) ([]PurchaseOrder, error) {
	return s.repo.ListPOs(ctx, filter)
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}
