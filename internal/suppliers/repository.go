package suppliers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
	"github.com/atelier-erp/atelier-erp/internal/rollup"
)

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Supplier, int, error)
	Get(ctx context.Context, id int64) (Supplier, error)
	Create(ctx context.Context, supplier Supplier) (Supplier, error)
	Update(ctx context.Context, id int64, supplier Supplier) error
	Delete(ctx context.Context, id int64) error
	ListRatings(ctx context.Context) ([]rollup.RatedEntity, error)
	ListRecords(ctx context.Context) ([]rollup.RawRecord, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const uniqueViolation = "23505"

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return httpx.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return httpx.ErrDuplicate
	}
	return err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Supplier, int, error) {
	query := `SELECT id, code, company_name, address, email, phone, status, rating, created_at, updated_at FROM suppliers WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		query += ` AND (company_name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Status != "" {
		argCount++
		query += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, filters.Status)
	}

	countQuery := `SELECT COUNT(*) FROM (` + query + `) c`
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + sortOrder(filters.SortBy, filters.SortDir)

	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Code, &s.CompanyName, &s.Address, &s.Email, &s.Phone, &s.Status, &s.Rating, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, s)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Supplier, error) {
	query := `SELECT id, code, company_name, address, email, phone, status, rating, created_at, updated_at FROM suppliers WHERE id = $1`
	var s Supplier
	err := r.db.QueryRow(ctx, query, id).Scan(&s.ID, &s.Code, &s.CompanyName, &s.Address, &s.Email, &s.Phone, &s.Status, &s.Rating, &s.CreatedAt, &s.UpdatedAt)
	return s, mapError(err)
}

func (r *repository) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	query := `INSERT INTO suppliers (code, company_name, address, email, phone, status, rating, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8) RETURNING id`
	now := time.Now()
	err := r.db.QueryRow(ctx, query, supplier.Code, supplier.CompanyName, supplier.Address, supplier.Email, supplier.Phone, supplier.Status, supplier.Rating, now).Scan(&supplier.ID)
	if err != nil {
		return Supplier{}, mapError(err)
	}
	supplier.CreatedAt = now
	supplier.UpdatedAt = now
	return supplier, nil
}

func (r *repository) Update(ctx context.Context, id int64, supplier Supplier) error {
	query := `UPDATE suppliers SET code = $1, company_name = $2, address = $3, email = $4, phone = $5, status = $6, rating = $7, updated_at = $8 WHERE id = $9`
	tag, err := r.db.Exec(ctx, query, supplier.Code, supplier.CompanyName, supplier.Address, supplier.Email, supplier.Phone, supplier.Status, supplier.Rating, time.Now(), id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ListRatings returns supplier weighted scores for the ranking rollup.
func (r *repository) ListRatings(ctx context.Context) ([]rollup.RatedEntity, error) {
	query := `SELECT s.id, s.company_name, COALESCE(rt.weighted_score, s.rating) FROM suppliers s LEFT JOIN supplier_ratings rt ON rt.supplier_id = s.id WHERE s.status <> $1`
	rows, err := r.db.Query(ctx, query, StatusArchived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []rollup.RatedEntity
	for rows.Next() {
		var id int64
		var entity rollup.RatedEntity
		if err := rows.Scan(&id, &entity.DisplayName, &entity.Score); err != nil {
			return nil, err
		}
		entity.ID = strconv.FormatInt(id, 10)
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

// ListRecords exposes suppliers in the wire shape the listing endpoint
// produces, feeding the dashboard normalizer unmodified.
func (r *repository) ListRecords(ctx context.Context) ([]rollup.RawRecord, error) {
	list, _, err := r.List(ctx, ListFilters{})
	if err != nil {
		return nil, err
	}
	records := make([]rollup.RawRecord, 0, len(list))
	for _, s := range list {
		records = append(records, rollup.RawRecord{
			"id":          strconv.FormatInt(s.ID, 10),
			"companyName": s.CompanyName,
			"status":      s.Status,
			"rating":      s.Rating,
			"createdAt":   s.CreatedAt.Format(time.RFC3339),
		})
	}
	return records, nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "code":
		return "code " + dir
	case "rating":
		return "rating " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "company_name " + dir
	}
}
