package reports

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ItemTotals(ctx context.Context) (Summary, error) {
	if r == nil || r.pool == nil {
		return Summary{}, errors.New("reports repository not initialised")
	}
	var summary Summary
	err := r.pool.QueryRow(ctx, `SELECT
COUNT(*),
COUNT(*) FILTER (WHERE on_hand > 0 AND on_hand <= low_stock_threshold),
COUNT(*) FILTER (WHERE on_hand <= 0),
COALESCE(SUM(consumed_total), 0),
COALESCE(SUM(rejected_total), 0)
FROM stock_items WHERE archived = FALSE`).
		Scan(&summary.TotalItems, &summary.LowStockCount, &summary.OutOfStockCount, &summary.TotalConsumed, &summary.TotalRejected)
	return summary, err
}

func (r *repository) CategoryBreakdown(ctx context.Context, from, to time.Time) ([]CategoryRow, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("reports repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT i.category,
COUNT(*),
COALESCE(SUM(e.quantity) FILTER (WHERE e.direction = 'IN'), 0),
COALESCE(SUM(e.quantity) FILTER (WHERE e.direction = 'OUT'), 0)
FROM movement_entries e
JOIN stock_items i ON i.id = e.item_id
WHERE e.occurred_at >= COALESCE($1, '-infinity') AND e.occurred_at <= COALESCE($2, 'infinity')
GROUP BY i.category
ORDER BY i.category ASC`, nullTime(from), nullTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []CategoryRow{}
	for rows.Next() {
		var row CategoryRow
		if err := rows.Scan(&row.Category, &row.MovementCount, &row.TotalIn, &row.TotalOut); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *repository) LowStockItems(ctx context.Context) ([]LowStockItem, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("reports repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, on_hand, low_stock_threshold
FROM stock_items
WHERE archived = FALSE AND on_hand <= low_stock_threshold
ORDER BY on_hand ASC, code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []LowStockItem{}
	for rows.Next() {
		var item LowStockItem
		if err := rows.Scan(&item.ID, &item.Code, &item.Name, &item.OnHand, &item.Threshold); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) VerifyLedger(ctx context.Context) ([]LedgerMismatch, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("reports repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT i.id, i.on_hand, COALESCE(l.net, 0),
i.consumed_total, COALESCE(l.consumed, 0),
i.rejected_total, COALESCE(l.rejected, 0)
FROM stock_items i
LEFT JOIN (
  SELECT item_id,
    SUM(CASE WHEN direction = 'IN' THEN quantity ELSE -quantity END) AS net,
    SUM(quantity) FILTER (WHERE direction = 'OUT' AND classification = 'normal') AS consumed,
    SUM(quantity) FILTER (WHERE direction = 'OUT' AND classification = 'rejected') AS rejected
  FROM movement_entries
  GROUP BY item_id
) l ON l.item_id = i.id
WHERE i.on_hand <> COALESCE(l.net, 0)
   OR i.consumed_total <> COALESCE(l.consumed, 0)
   OR i.rejected_total <> COALESCE(l.rejected, 0)
ORDER BY i.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mismatches := []LedgerMismatch{}
	for rows.Next() {
		var m LedgerMismatch
		if err := rows.Scan(&m.ItemID, &m.OnHand, &m.LedgerNet, &m.ConsumedTotal, &m.LedgerConsumed, &m.RejectedTotal, &m.LedgerRejected); err != nil {
			return nil, err
		}
		mismatches = append(mismatches, m)
	}
	return mismatches, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
