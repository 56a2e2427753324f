package ledger

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curastock/curastock/internal/shared"
)

// Repository persists ledger data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// ListEntries returns movement entries newest first within the window.
func (r *Repository) ListEntries(ctx context.Context, filter Filter) ([]Entry, error) {
	if r == nil {
		return nil, errors.New("ledger repository not initialised")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}

	query := `SELECT id, item_id, direction, classification, quantity, remark, actor, COALESCE(ref_id::text, ''), occurred_at
FROM movement_entries WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.ItemID != 0 {
		argCount++
		query += ` AND item_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.ItemID)
	}
	if filter.Direction != "" {
		argCount++
		query += ` AND direction = $` + strconv.Itoa(argCount)
		args = append(args, string(filter.Direction))
	}
	argCount++
	query += ` AND occurred_at >= COALESCE($` + strconv.Itoa(argCount) + `, '-infinity')`
	args = append(args, nullTime(filter.From))
	argCount++
	query += ` AND occurred_at <= COALESCE($` + strconv.Itoa(argCount) + `, 'infinity')`
	args = append(args, nullTime(filter.To))

	argCount++
	query += ` ORDER BY occurred_at DESC, id DESC LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.ItemID, &entry.Direction, &entry.Classification, &entry.Quantity, &entry.Remark, &entry.Actor, &entry.RefID, &entry.OccurredAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, itemID int64) (ItemState, error) {
	var state ItemState
	err := r.tx.QueryRow(ctx, `SELECT id, on_hand, consumed_total, rejected_total, low_stock_threshold
FROM stock_items WHERE id = $1 AND archived = FALSE FOR UPDATE`, itemID).
		Scan(&state.ItemID, &state.OnHand, &state.ConsumedTotal, &state.RejectedTotal, &state.LowStockThreshold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ItemState{}, shared.ErrNotFound
		}
		return ItemState{}, err
	}
	return state, nil
}

func (r *txRepository) InsertEntry(ctx context.Context, entry Entry) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO movement_entries (item_id, direction, classification, quantity, remark, actor, ref_id, occurred_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		entry.ItemID, string(entry.Direction), string(entry.Classification), entry.Quantity,
		entry.Remark, entry.Actor, nullUUID(entry.RefID), entry.OccurredAt).Scan(&id)
	return id, err
}

func (r *txRepository) UpdateItemCounters(ctx context.Context, state ItemState) error {
	_, err := r.tx.Exec(ctx, `UPDATE stock_items
SET on_hand = $2, consumed_total = $3, rejected_total = $4, updated_at = NOW()
WHERE id = $1`, state.ItemID, state.OnHand, state.ConsumedTotal, state.RejectedTotal)
	return err
}

func nullUUID(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
