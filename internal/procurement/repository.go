package procurement

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

type txRepository struct {
	tx pgx.Tx
}

// WithTx runs fn inside one transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// GetPO loads one purchase order with its lines.
func (r *Repository) GetPO(ctx context.Context, id int64) (PurchaseOrder, []POLine, error) {
	const header = `SELECT id, number, supplier_id, status, total_amount, note, COALESCE(approved_by, 0), COALESCE(approved_at, 'epoch'::timestamptz), created_at, updated_at FROM purchase_orders WHERE id = $1`
	var po PurchaseOrder
	err := r.db.QueryRow(ctx, header, id).Scan(&po.ID, &po.Number, &po.SupplierID, &po.Status, &po.TotalAmount, &po.Note, &po.ApprovedBy, &po.ApprovedAt, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, nil, ErrNotFound
		}
		return PurchaseOrder{}, nil, err
	}

	const lineQuery = `SELECT id, po_id, material_type, quantity, unit_price FROM purchase_order_lines WHERE po_id = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, lineQuery, id)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	defer rows.Close()

	var lines []POLine
	for rows.Next() {
		var line POLine
		if err := rows.Scan(&line.ID, &line.POID, &line.MaterialType, &line.Quantity, &line.UnitPrice); err != nil {
			return PurchaseOrder{}, nil, err
		}
		lines = append(lines, line)
	}
	return po, lines, rows.Err()
}

// ListPOs lists purchase orders matching the filter, newest first.
func (r *Repository) ListPOs(ctx context.Context, filter ListFilter) ([]PurchaseOrder, error) {
	query := `SELECT id, number, supplier_id, status, total_amount, note, COALESCE(approved_by, 0), COALESCE(approved_at, 'epoch'::timestamptz), created_at, updated_at FROM purchase_orders WHERE 1=1`
	args := []any{}
	argCount := 0
	if filter.SupplierID > 0 {
		argCount++
		query += ` AND supplier_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.SupplierID)
	}
	if filter.Status != "" {
		argCount++
		query += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, filter.Status)
	}
	if !filter.Since.IsZero() {
		argCount++
		query += ` AND created_at >= $` + strconv.Itoa(argCount)
		args = append(args, filter.Since)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []PurchaseOrder
	for rows.Next() {
		var po PurchaseOrder
		if err := rows.Scan(&po.ID, &po.Number, &po.SupplierID, &po.Status, &po.TotalAmount, &po.Note, &po.ApprovedBy, &po.ApprovedAt, &po.CreatedAt, &po.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, po)
	}
	return orders, rows.Err()
}

// ListRecords exposes purchase orders in the listing endpoint's wire shape so
// the dashboard normalizer sees the same duck-typed fields the UI does.
func (r *Repository) ListRecords(ctx context.Context, since time.Time) ([]rollup.RawRecord, error) {
	orders, err := r.ListPOs(ctx, ListFilter{Since: since})
	if err != nil {
		return nil, err
	}
	records := make([]rollup.RawRecord, 0, len(orders))
	for _, po := range orders {
		_, lines, err := r.GetPO(ctx, po.ID)
		if err != nil {
			return nil, err
		}
		items := make([]any, 0, len(lines))
		for _, line := range lines {
			items = append(items, map[string]any{
				"materialType": line.MaterialType,
				"quantity":     line.Quantity,
			})
		}
		records = append(records, rollup.RawRecord{
			"id":          strconv.FormatInt(po.ID, 10),
			"status":      string(po.Status),
			"totalAmount": po.TotalAmount,
			"createdAt":   po.CreatedAt.Format(time.RFC3339),
			"items":       items,
		})
	}
	return records, nil
}

func (t *txRepository) CreatePO(ctx context.Context, po PurchaseOrder) (int64, error) {
	const query = `INSERT INTO purchase_orders (number, supplier_id, status, total_amount, note, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, now(), now()) RETURNING id`
	var id int64
	err := t.tx.QueryRow(ctx, query, po.Number, po.SupplierID, po.Status, po.TotalAmount, po.Note).Scan(&id)
	return id, err
}

func (t *txRepository) CreatePOLines(ctx context.Context, poID int64, lines []POLine) error {
	const query = `INSERT INTO purchase_order_lines (po_id, material_type, quantity, unit_price) VALUES ($1, $2, $3, $4)`
	for _, line := range lines {
		if _, err := t.tx.Exec(ctx, query, poID, line.MaterialType, line.Quantity, line.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepository) UpdatePOStatus(ctx context.Context, poID int64, status POStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET status = $1, updated_at = now() WHERE id = $2`, status, poID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) SetPOApproval(ctx context.Context, poID int64, actorID int64, at time.Time) error {
	_, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET approved_by = $1, approved_at = $2 WHERE id = $3`, actorID, at, poID)
	return err
}
