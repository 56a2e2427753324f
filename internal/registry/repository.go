package registry

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curastock/curastock/internal/shared"
)

// SeedEntry describes the synthetic IN movement written together with a new
// item that starts with stock on hand.
type SeedEntry struct {
	Quantity int64
	Remark   string
	Actor    string
}

// Repository persists stock items.
type Repository interface {
	Create(ctx context.Context, item Item, seed *SeedEntry) (Item, error)
	Get(ctx context.Context, id int64) (Item, error)
	List(ctx context.Context, filters ListFilters) ([]Item, int, error)
	Archive(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const itemColumns = `id, code, name, category, unit, on_hand, consumed_total, rejected_total, low_stock_threshold, archived, created_at, updated_at`

// statusExpr derives status in SQL with the same rule as DeriveStatus.
const statusExpr = `CASE WHEN on_hand <= 0 THEN 'out_of_stock' WHEN on_hand <= low_stock_threshold THEN 'low_stock' ELSE 'in_stock' END`

func (r *repository) Create(ctx context.Context, item Item, seed *SeedEntry) (Item, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Item{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `INSERT INTO stock_items (code, name, category, unit, on_hand, consumed_total, rejected_total, low_stock_threshold, archived, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,0,0,$6,FALSE,NOW(),NOW())
RETURNING `+itemColumns, item.Code, item.Name, item.Category, item.Unit, item.OnHand, item.LowStockThreshold).
		Scan(scanTargets(&item)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Item{}, shared.ErrDuplicateCode
		}
		return Item{}, err
	}

	if seed != nil {
		if _, err := tx.Exec(ctx, `INSERT INTO movement_entries (item_id, direction, classification, quantity, remark, actor, occurred_at)
VALUES ($1,'IN','normal',$2,$3,$4,NOW())`, item.ID, seed.Quantity, seed.Remark, seed.Actor); err != nil {
			return Item{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Item{}, err
	}
	return item, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Item, error) {
	var item Item
	err := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM stock_items WHERE id = $1 AND archived = FALSE`, id).
		Scan(scanTargets(&item)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.ErrNotFound
		}
		return Item{}, err
	}
	return item, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Item, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if !filters.IncludeArchived {
		where += ` AND archived = FALSE`
	}
	if filters.Search != "" {
		argCount++
		placeholder := `$` + strconv.Itoa(argCount)
		where += ` AND (name ILIKE ` + placeholder + ` OR code ILIKE ` + placeholder + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Category != "" {
		argCount++
		where += ` AND category = $` + strconv.Itoa(argCount)
		args = append(args, filters.Category)
	}
	if filters.Status != "" {
		argCount++
		where += ` AND ` + statusExpr + ` = $` + strconv.Itoa(argCount)
		args = append(args, string(filters.Status))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_items`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + itemColumns + ` FROM stock_items` + where + ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)
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

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(scanTargets(&item)...); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (r *repository) Archive(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE stock_items SET archived = TRUE, updated_at = NOW() WHERE id = $1 AND archived = FALSE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanTargets(item *Item) []any {
	return []any{
		&item.ID, &item.Code, &item.Name, &item.Category, &item.Unit,
		&item.OnHand, &item.ConsumedTotal, &item.RejectedTotal,
		&item.LowStockThreshold, &item.Archived, &item.CreatedAt, &item.UpdatedAt,
	}
}

func sortOrder(sortBy, sortDir string) string {
	column := "code"
	switch sortBy {
	case "name", "category", "on_hand", "created_at":
		column = sortBy
	}
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	return column + " " + dir
}
