package procurement

import (
	"errors"
	"time"
)

// Purchase order lifecycle statuses.
type POStatus string

const (
	POStatusDraft     POStatus = "DRAFT"
	POStatusPending   POStatus = "PENDING"
	POStatusApproved  POStatus = "APPROVED"
	POStatusRejected  POStatus = "REJECTED"
	POStatusCompleted POStatus = "COMPLETED"
	POStatusCancelled POStatus = "CANCELLED"
)

// PurchaseOrder domain model.
type PurchaseOrder struct {
	ID          int64     `json:"id"`
	Number      string    `json:"number"`
	SupplierID  int64     `json:"supplierId"`
	Status      POStatus  `json:"status"`
	TotalAmount float64   `json:"totalAmount"`
	Note        string    `json:"note"`
	ApprovedBy  int64     `json:"approvedBy,omitempty"`
	ApprovedAt  time.Time `json:"approvedAt,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// POLine represents one ordered material.
type POLine struct {
	ID           int64   `json:"id"`
	POID         int64   `json:"poId"`
	MaterialType string  `json:"materialType"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
}

// BudgetPolicy controls the approval workflow. Orders at or under the
// auto-approve limit skip the pending stage on submit.
type BudgetPolicy struct {
	AutoApproveLimit float64
}

var (
	// ErrInvalidState occurs when an action violates the status workflow.
	ErrInvalidState = errors.New("procurement: invalid state transition")
	// ErrNotFound indicates the record is missing.
	ErrNotFound = errors.New("procurement: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("procurement: invalid input")
)
