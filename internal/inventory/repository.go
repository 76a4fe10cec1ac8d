package inventory

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/rollup"
)

// Repository implements RepositoryPort on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository wires the pgx pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetStockItem(ctx context.Context, materialType string) (StockItem, error) {
	const query = `SELECT id, material_type, quantity, reorder_level, unit_cost, updated_at FROM stock_items WHERE material_type = $1`
	var item StockItem
	err := r.db.QueryRow(ctx, query, materialType).Scan(&item.ID, &item.MaterialType, &item.Quantity, &item.ReorderLevel, &item.UnitCost, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockItem{}, ErrNotFound
	}
	return item, err
}

func (r *Repository) ListStockItems(ctx context.Context) ([]StockItem, error) {
	const query = `SELECT id, material_type, quantity, reorder_level, unit_cost, updated_at FROM stock_items ORDER BY material_type`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []StockItem
	for rows.Next() {
		var item StockItem
		if err := rows.Scan(&item.ID, &item.MaterialType, &item.Quantity, &item.ReorderLevel, &item.UnitCost, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) AdjustQuantity(ctx context.Context, materialType string, delta float64) (StockItem, error) {
	const query = `UPDATE stock_items SET quantity = quantity + $1, updated_at = now() WHERE material_type = $2 RETURNING id, material_type, quantity, reorder_level, unit_cost, updated_at`
	var item StockItem
	err := r.db.QueryRow(ctx, query, delta, materialType).Scan(&item.ID, &item.MaterialType, &item.Quantity, &item.ReorderLevel, &item.UnitCost, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockItem{}, ErrNotFound
	}
	return item, err
}

func (r *Repository) InsertDisposal(ctx context.Context, record DisposalRecord) (DisposalRecord, error) {
	const query = `INSERT INTO disposal_records (material_type, quantity, reason, note, disposed_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.db.QueryRow(ctx, query, record.MaterialType, record.Quantity, record.Reason, record.Note, record.DisposedAt).Scan(&record.ID)
	return record, err
}

func (r *Repository) InsertReorder(ctx context.Context, record ReorderRecord) (ReorderRecord, error) {
	const query = `INSERT INTO reorder_records (material_type, quantity, status, requested_at) VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.db.QueryRow(ctx, query, record.MaterialType, record.Quantity, record.Status, record.RequestedAt).Scan(&record.ID)
	return record, err
}

func (r *Repository) ListDisposals(ctx context.Context, since time.Time) ([]DisposalRecord, error) {
	const query = `SELECT id, material_type, quantity, reason, note, disposed_at FROM disposal_records WHERE disposed_at >= $1 ORDER BY disposed_at DESC`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []DisposalRecord
	for rows.Next() {
		var record DisposalRecord
		if err := rows.Scan(&record.ID, &record.MaterialType, &record.Quantity, &record.Reason, &record.Note, &record.DisposedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *Repository) ListReorders(ctx context.Context, since time.Time) ([]ReorderRecord, error) {
	const query = `SELECT id, material_type, quantity, status, requested_at FROM reorder_records WHERE requested_at >= $1 ORDER BY requested_at DESC`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ReorderRecord
	for rows.Next() {
		var record ReorderRecord
		if err := rows.Scan(&record.ID, &record.MaterialType, &record.Quantity, &record.Status, &record.RequestedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// ListDisposalRecords exposes disposals in the listing endpoint's wire shape
// for the dashboard normalizer.
func (r *Repository) ListDisposalRecords(ctx context.Context, since time.Time) ([]rollup.RawRecord, error) {
	disposals, err := r.ListDisposals(ctx, since)
	if err != nil {
		return nil, err
	}
	records := make([]rollup.RawRecord, 0, len(disposals))
	for _, d := range disposals {
		records = append(records, rollup.RawRecord{
			"id":     strconv.FormatInt(d.ID, 10),
			"status": string(d.Reason),
			"amount": d.Quantity,
			"date":   d.DisposedAt.Format(time.RFC3339),
			"items": []any{
				map[string]any{"material": d.MaterialType, "quantity": d.Quantity},
			},
		})
	}
	return records, nil
}
