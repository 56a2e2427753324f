package ledger

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/curastock/curastock/internal/registry"
	"github.com/curastock/curastock/internal/shared"
)

type memoryRepo struct {
	states  map[int64]ItemState
	entries []Entry
	nextID  int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{states: make(map[int64]ItemState)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshotStates := make(map[int64]ItemState, len(r.states))
	for k, v := range r.states {
		snapshotStates[k] = v
	}
	snapshotEntries := make([]Entry, len(r.entries))
	copy(snapshotEntries, r.entries)
	snapshotID := r.nextID

	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.states = snapshotStates
		r.entries = snapshotEntries
		r.nextID = snapshotID
		return err
	}
	return nil
}

func (r *memoryRepo) ListEntries(ctx context.Context, filter Filter) ([]Entry, error) {
	result := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if filter.ItemID != 0 && e.ItemID != filter.ItemID {
			continue
		}
		if filter.Direction != "" && e.Direction != filter.Direction {
			continue
		}
		if !filter.From.IsZero() && e.OccurredAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && e.OccurredAt.After(filter.To) {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].OccurredAt.Equal(result[j].OccurredAt) {
			return result[i].OccurredAt.After(result[j].OccurredAt)
		}
		return result[i].ID > result[j].ID
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (tx *memoryTx) GetItemForUpdate(ctx context.Context, itemID int64) (ItemState, error) {
	state, ok := tx.repo.states[itemID]
	if !ok {
		return ItemState{}, shared.ErrNotFound
	}
	return state, nil
}

func (tx *memoryTx) InsertEntry(ctx context.Context, entry Entry) (int64, error) {
	tx.repo.nextID++
	entry.ID = tx.repo.nextID
	tx.repo.entries = append(tx.repo.entries, entry)
	return entry.ID, nil
}

func (tx *memoryTx) UpdateItemCounters(ctx context.Context, state ItemState) error {
	tx.repo.states[state.ItemID] = state
	return nil
}

type memoryIdempotency struct {
	keys map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: make(map[string]bool)}
}

func (m *memoryIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdempotency) Delete(ctx context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

func seedGloves(repo *memoryRepo) {
	repo.states[1] = ItemState{ItemID: 1, OnHand: 15, LowStockThreshold: 10}
}

func TestApplyOutboundConsumption(t *testing.T) {
	repo := newMemoryRepo()
	seedGloves(repo)
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Apply(ctx, ApplyInput{ItemID: 1, Direction: DirectionOut, Quantity: 8, Remark: "ward issue"})
	require.NoError(t, err)
	require.Equal(t, int64(7), res.OnHand)
	require.Equal(t, registry.StatusLowStock, res.Status)
	require.Equal(t, ClassificationNormal, res.Entry.Classification)

	state := repo.states[1]
	require.Equal(t, int64(7), state.OnHand)
	require.Equal(t, int64(8), state.ConsumedTotal)
	require.Equal(t, int64(0), state.RejectedTotal)
}

func TestApplyOutboundRejection(t *testing.T) {
	repo := newMemoryRepo()
	seedGloves(repo)
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Apply(ctx, ApplyInput{ItemID: 1, Direction: DirectionOut, Quantity: 2, Remark: "Rejected: damaged boxes"})
	require.NoError(t, err)
	require.Equal(t, ClassificationRejected, res.Entry.Classification)
	require.Equal(t, int64(13), res.OnHand)

	state := repo.states[1]
	require.Equal(t, int64(2), state.RejectedTotal)
	require.Equal(t, int64(0), state.ConsumedTotal)
}

func TestApplyInsufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.states[1] = ItemState{ItemID: 1, OnHand: 5, LowStockThreshold: 10}
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Apply(ctx, ApplyInput{ItemID: 1, Direction: DirectionOut, Quantity: 10, Remark: "ward issue"})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	state := repo.states[1]
	require.Equal(t, int64(5), state.OnHand)
	require.Empty(t, repo.entries)
}

func TestApplyExactDrain(t *testing.T) {
	repo := newMemoryRepo()
	repo.states[1] = ItemState{ItemID: 1, OnHand: 5, LowStockThreshold: 10}
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Apply(ctx, ApplyInput{ItemID: 1, Direction: DirectionOut, Quantity: 5, Remark: "last issue"})
	require.NoError(t, err)
	require.Equal(t, int64(0), res.OnHand)
	require.Equal(t, registry.StatusOutOfStock, res.Status)
}

func TestApplyInboundRestock(t *testing.T) {
	repo := newMemoryRepo()
	repo.states[1] = ItemState{ItemID: 1, OnHand: 2, LowStockThreshold: 10}
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Apply(ctx, ApplyInput{ItemID: 1, Direction: DirectionIn, Quantity: 20, Remark: "delivery"})
	require.NoError(t, err)
	require.Equal(t, int64(22), res.OnHand)
	require.Equal(t, registry.StatusInStock, res.Status)
	require.Equal(t, ClassificationNormal, res.Entry.Classification)
}

func TestApplyValidation(t *testing.T) {
	repo := newMemoryRepo()
	seedGloves(repo)
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Apply(ctx, ApplyInput{ItemID: 1, Direction: DirectionOut, Quantity: 0})
	require.ErrorIs(t, err, shared.ErrInvalidQuantity)

	_, err = svc.Apply(ctx, ApplyInput{ItemID: 1, Direction: DirectionOut, Quantity: -3})
	require.ErrorIs(t, err, shared.ErrInvalidQuantity)

	_, err = svc.Apply(ctx, ApplyInput{ItemID: 1, Direction: "SIDEWAYS", Quantity: 1})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Apply(ctx, ApplyInput{ItemID: 1, Direction: DirectionOut, Quantity: 1, RefID: "not-a-uuid"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Apply(ctx, ApplyInput{ItemID: 99, Direction: DirectionOut, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestApplyIdempotency(t *testing.T) {
	repo := newMemoryRepo()
	seedGloves(repo)
	idem := newMemoryIdempotency()
	svc := NewService(repo, nil, idem, nil, nil)
	ctx := context.Background()

	_, err := svc.Apply(ctx, ApplyInput{ItemID: 1, Direction: DirectionOut, Quantity: 1, IdempotencyKey: "req-1"})
	require.NoError(t, err)

	_, err = svc.Apply(ctx, ApplyInput{ItemID: 1, Direction: DirectionOut, Quantity: 1, IdempotencyKey: "req-1"})
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)

	state := repo.states[1]
	require.Equal(t, int64(14), state.OnHand)
	require.Len(t, repo.entries, 1)
}

func TestApplyIdempotencyKeyReleasedOnFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.states[1] = ItemState{ItemID: 1, OnHand: 1, LowStockThreshold: 10}
	idem := newMemoryIdempotency()
	svc := NewService(repo, nil, idem, nil, nil)
	ctx := context.Background()

	_, err := svc.Apply(ctx, ApplyInput{ItemID: 1, Direction: DirectionOut, Quantity: 5, IdempotencyKey: "req-2"})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.False(t, idem.keys["req-2"])

	// Restock and retry with the same key succeeds.
	_, err = svc.Apply(ctx, ApplyInput{ItemID: 1, Direction: DirectionIn, Quantity: 10})
	require.NoError(t, err)
	_, err = svc.Apply(ctx, ApplyInput{ItemID: 1, Direction: DirectionOut, Quantity: 5, IdempotencyKey: "req-2"})
	require.NoError(t, err)
}

func TestApplyFoldLaw(t *testing.T) {
	repo := newMemoryRepo()
	repo.states[1] = ItemState{ItemID: 1, OnHand: 0, LowStockThreshold: 5}
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	moves := []ApplyInput{
		{ItemID: 1, Direction: DirectionIn, Quantity: 50, Remark: "delivery"},
		{ItemID: 1, Direction: DirectionOut, Quantity: 12, Remark: "ward issue"},
		{ItemID: 1, Direction: DirectionOut, Quantity: 3, Remark: "expired batch"},
		{ItemID: 1, Direction: DirectionIn, Quantity: 10, Remark: "delivery"},
		{ItemID: 1, Direction: DirectionOut, Quantity: 7, Remark: "theatre issue"},
	}
	for _, m := range moves {
		_, err := svc.Apply(ctx, m)
		require.NoError(t, err)
	}

	// Replay the ledger independently and compare against the counters.
	var net, consumed, rejected int64
	for _, e := range repo.entries {
		switch {
		case e.Direction == DirectionIn:
			net += e.Quantity
		case e.Classification == ClassificationRejected:
			net -= e.Quantity
			rejected += e.Quantity
		default:
			net -= e.Quantity
			consumed += e.Quantity
		}
	}
	state := repo.states[1]
	require.Equal(t, state.OnHand, net)
	require.Equal(t, state.ConsumedTotal, consumed)
	require.Equal(t, state.RejectedTotal, rejected)
	require.Equal(t, int64(38), state.OnHand)
	require.Equal(t, int64(19), state.ConsumedTotal)
	require.Equal(t, int64(3), state.RejectedTotal)
}

func TestListEntriesNewestFirst(t *testing.T) {
	repo := newMemoryRepo()
	seedGloves(repo)
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	day := func(d int) time.Time {
		return time.Date(2026, 8, d, 9, 0, 0, 0, time.UTC)
	}
	repo.entries = []Entry{
		{ID: 1, ItemID: 1, Direction: DirectionIn, Quantity: 50, OccurredAt: day(1)},
		{ID: 2, ItemID: 1, Direction: DirectionOut, Quantity: 12, OccurredAt: day(3)},
		{ID: 3, ItemID: 1, Direction: DirectionOut, Quantity: 3, OccurredAt: day(2)},
		{ID: 4, ItemID: 1, Direction: DirectionIn, Quantity: 10, OccurredAt: day(3)},
	}

	entries, err := svc.ListEntries(ctx, Filter{ItemID: 1})
	require.NoError(t, err)
	require.Len(t, entries, 4)
	ids := []int64{entries[0].ID, entries[1].ID, entries[2].ID, entries[3].ID}
	// Same instant breaks the tie on id, newest append first.
	require.Equal(t, []int64{4, 2, 3, 1}, ids)

	entries, err = svc.ListEntries(ctx, Filter{ItemID: 1, From: day(2), To: day(2)})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, int64(3), entries[0].ID)

	entries, err = svc.ListEntries(ctx, Filter{ItemID: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, int64(4), entries[0].ID)
}

func TestListEntriesDefaultLimit(t *testing.T) {
	repo := newMemoryRepo()
	seedGloves(repo)
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Apply(ctx, ApplyInput{ItemID: 1, Direction: DirectionOut, Quantity: 1, Remark: "issue"})
	require.NoError(t, err)

	entries, err := svc.ListEntries(ctx, Filter{ItemID: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, DirectionOut, entries[0].Direction)
}
