package inventory

import (
	"errors"
	"time"
)

// DisposalReason enumerates why stock leaves the warehouse outside of sales.
type DisposalReason string

const (
	DisposalReasonDamaged  DisposalReason = "DAMAGED"
	DisposalReasonExpired  DisposalReason = "EXPIRED"
	DisposalReasonObsolete DisposalReason = "OBSOLETE"
)

// StockItem summarises one material held in the warehouse.
type StockItem struct {
	ID           int64     `json:"id"`
	MaterialType string    `json:"materialType"`
	Quantity     float64   `json:"quantity"`
	ReorderLevel float64   `json:"reorderLevel"`
	UnitCost     float64   `json:"unitCost"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DisposalRecord tracks stock written off.
type DisposalRecord struct {
	ID           int64          `json:"id"`
	MaterialType string         `json:"materialType"`
	Quantity     float64        `json:"quantity"`
	Reason       DisposalReason `json:"reason"`
	Note         string         `json:"note"`
	DisposedAt   time.Time      `json:"disposedAt"`
}

// ReorderRecord tracks a replenishment request raised for low stock.
type ReorderRecord struct {
	ID           int64     `json:"id"`
	MaterialType string    `json:"materialType"`
	Quantity     float64   `json:"quantity"`
	Status       string    `json:"status"`
	RequestedAt  time.Time `json:"requestedAt"`
}

var (
	// ErrNotFound indicates the stock item is missing.
	ErrNotFound = errors.New("inventory: not found")
	// ErrInvalidQuantity rejects non-positive movement quantities.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
	// ErrInsufficientStock blocks disposals beyond the held quantity.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)
