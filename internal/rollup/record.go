// Package rollup derives time-bucketed series, categorical distributions and
// top-N rankings from raw transactional records. Every function is a pure
// transformation over in-memory collections; callers fetch the data and decide
// when to recompute.
package rollup

import "time"

// RawRecord is an already-parsed source object with endpoint-specific field names.
type RawRecord = map[string]any

// StatusUnspecified tracks records whose source carries no status-like field.
const StatusUnspecified = "unspecified"

// LineItem is a labelled quantity used for demand rollups.
type LineItem struct {
	Label    string
	Quantity float64
}

// TransactionRecord is the canonical shape the aggregators operate on.
type TransactionRecord struct {
	ID        string
	Timestamp time.Time
	Amount    float64
	Status    string
	LineItems []LineItem
}

// RatedEntity carries an externally computed score for ranking.
type RatedEntity struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	Score       float64 `json:"score"`
}

// FieldCandidates lists, per canonical field, the source field names to probe
// in order. The first present and well-typed value wins.
type FieldCandidates struct {
	ID           []string
	Timestamp    []string
	Amount       []string
	Status       []string
	LineItems    string
	ItemLabel    []string
	ItemQuantity []string
}

// MonthBucket aggregates records falling inside one calendar month.
type MonthBucket struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
}

// StatusCount pairs a caller-supplied status label with its record count.
type StatusCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// LabelQuantity aggregates line item quantities under one label.
type LabelQuantity struct {
	Label         string  `json:"label"`
	TotalQuantity float64 `json:"totalQuantity"`
}
