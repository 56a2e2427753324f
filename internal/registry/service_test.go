package registry

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/curastock/curastock/internal/shared"
)

type memoryRepo struct {
	items  map[int64]Item
	seeds  map[int64]SeedEntry
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Item), seeds: make(map[int64]SeedEntry)}
}

func (r *memoryRepo) Create(ctx context.Context, item Item, seed *SeedEntry) (Item, error) {
	for _, existing := range r.items {
		if strings.EqualFold(existing.Code, item.Code) {
			return Item{}, shared.ErrDuplicateCode
		}
	}
	r.nextID++
	item.ID = r.nextID
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	r.items[item.ID] = item
	if seed != nil {
		r.seeds[item.ID] = *seed
	}
	return item, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Item, error) {
	item, ok := r.items[id]
	if !ok || item.Archived {
		return Item{}, shared.ErrNotFound
	}
	return item, nil
}

func (r *memoryRepo) List(ctx context.Context, filters ListFilters) ([]Item, int, error) {
	result := make([]Item, 0, len(r.items))
	for _, item := range r.items {
		if item.Archived && !filters.IncludeArchived {
			continue
		}
		if filters.Status != "" && item.Status() != filters.Status {
			continue
		}
		result = append(result, item)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Archive(ctx context.Context, id int64) error {
	item, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	item.Archived = true
	r.items[id] = item
	return nil
}

type countingInvalidator struct {
	bumps int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) error {
	c.bumps++
	return nil
}

func TestRegisterSeedsInitialStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	item, err := svc.Register(ctx, RegisterInput{
		Code:              "GLOVES-001",
		Name:              "Nitrile Gloves M",
		Category:          "consumables",
		Unit:              "box",
		InitialStock:      15,
		LowStockThreshold: 10,
	})
	require.NoError(t, err)
	require.Equal(t, int64(15), item.OnHand)
	require.Equal(t, StatusInStock, item.Status())

	seed, ok := repo.seeds[item.ID]
	require.True(t, ok, "positive initial stock should produce a seed movement")
	require.Equal(t, int64(15), seed.Quantity)
}

func TestRegisterZeroStockSkipsSeed(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	item, err := svc.Register(ctx, RegisterInput{Code: "IVSET-STD", Name: "IV Set", Unit: "piece"})
	require.NoError(t, err)
	require.Equal(t, int64(0), item.OnHand)
	require.Equal(t, StatusOutOfStock, item.Status())
	require.NotContains(t, repo.seeds, item.ID)
}

func TestRegisterDuplicateCode(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Code: "GLOVES-001", Name: "Gloves", Unit: "box"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Code: "gloves-001", Name: "Gloves again", Unit: "box"})
	require.ErrorIs(t, err, shared.ErrDuplicateCode)
}

func TestRegisterValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	cases := []RegisterInput{
		{Name: "No code", Unit: "box"},
		{Code: "X-1", Unit: "box"},
		{Code: "X-1", Name: "No unit"},
		{Code: "X-1", Name: "Negative", Unit: "box", InitialStock: -1},
		{Code: "X-1", Name: "Negative threshold", Unit: "box", LowStockThreshold: -5},
	}
	for _, input := range cases {
		_, err := svc.Register(ctx, input)
		require.ErrorIs(t, err, shared.ErrValidation)
	}
}

func TestArchiveHidesFromListing(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	item, err := svc.Register(ctx, RegisterInput{Code: "GAUZE-10", Name: "Gauze", Unit: "pack", InitialStock: 5, LowStockThreshold: 2})
	require.NoError(t, err)

	require.NoError(t, svc.Archive(ctx, item.ID))

	items, total, err := svc.List(ctx, ListFilters{})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, items)

	items, _, err = svc.List(ctx, ListFilters{IncludeArchived: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, items[0].Archived)

	_, err = svc.Get(ctx, item.ID)
	require.ErrorIs(t, err, shared.ErrNotFound, "archived items resolve like missing ones")
}

func TestRegisterAndArchiveRetireReportCache(t *testing.T) {
	repo := newMemoryRepo()
	invalidator := &countingInvalidator{}
	svc := NewService(repo, nil, invalidator)
	ctx := context.Background()

	item, err := svc.Register(ctx, RegisterInput{Code: "PARA-500", Name: "Paracetamol 500mg", Unit: "strip", InitialStock: 40, LowStockThreshold: 10})
	require.NoError(t, err)
	require.Equal(t, 1, invalidator.bumps, "registering changes summary counts, cached reports must retire")

	require.NoError(t, svc.Archive(ctx, item.ID))
	require.Equal(t, 2, invalidator.bumps, "archiving changes summary counts, cached reports must retire")

	_, err = svc.Register(ctx, RegisterInput{Name: "no code", Unit: "box"})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.ErrorIs(t, svc.Archive(ctx, 404), shared.ErrNotFound)
	require.Equal(t, 2, invalidator.bumps, "failed writes leave the cache version alone")
}

func TestArchiveMissing(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	require.ErrorIs(t, svc.Archive(context.Background(), 404), shared.ErrNotFound)
	require.ErrorIs(t, svc.Archive(context.Background(), 0), shared.ErrNotFound)
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		onHand    int64
		threshold int64
		want      Status
	}{
		{0, 10, StatusOutOfStock},
		{-1, 10, StatusOutOfStock},
		{1, 10, StatusLowStock},
		{10, 10, StatusLowStock},
		{11, 10, StatusInStock},
		{1, 0, StatusInStock},
		{0, 0, StatusOutOfStock},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, DeriveStatus(tc.onHand, tc.threshold), "on_hand=%d threshold=%d", tc.onHand, tc.threshold)
	}
}
