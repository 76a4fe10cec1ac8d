package suppliers

import (
	"time"
)

// Supplier statuses.
const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
	StatusArchived  = "ARCHIVED"
)

// Supplier represents a supplier entity.
type Supplier struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	CompanyName string    `json:"companyName"`
	Address     string    `json:"address"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Status      string    `json:"status"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFilters represents standard list filters.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	Status  string
	SortBy  string
	SortDir string
}
