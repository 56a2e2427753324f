package reports

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/curastock/curastock/internal/ledger"
)

// Summary aggregates the current registry position. Consumed/rejected totals
// are lifetime counters, not windowed.
type Summary struct {
	TotalItems      int64 `json:"total_items"`
	LowStockCount   int64 `json:"low_stock_count"`
	OutOfStockCount int64 `json:"out_of_stock_count"`
	TotalConsumed   int64 `json:"total_consumed"`
	TotalRejected   int64 `json:"total_rejected"`
}

// CategoryRow aggregates movements per item category within a window.
// Categories without movements in the window produce no row.
type CategoryRow struct {
	Category      string `json:"category"`
	MovementCount int64  `json:"movement_count"`
	TotalIn       int64  `json:"total_in"`
	TotalOut      int64  `json:"total_out"`
}

// Repository exposes the aggregate queries the reporting layer relies on.
type Repository interface {
	ItemTotals(ctx context.Context) (Summary, error)
	CategoryBreakdown(ctx context.Context, from, to time.Time) ([]CategoryRow, error)
	LowStockItems(ctx context.Context) ([]LowStockItem, error)
	VerifyLedger(ctx context.Context) ([]LedgerMismatch, error)
}

// LedgerPort is the slice of the ledger service reporting needs.
type LedgerPort interface {
	ListEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error)
}

// LowStockItem is the projection the low-stock scan job works on.
type LowStockItem struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	OnHand    int64  `json:"on_hand"`
	Threshold int64  `json:"threshold"`
}

// LedgerMismatch reports an item whose counters diverge from its replayed
// ledger. An empty result means the fold invariant holds for every item.
type LedgerMismatch struct {
	ItemID         int64 `json:"item_id"`
	OnHand         int64 `json:"on_hand"`
	LedgerNet      int64 `json:"ledger_net"`
	ConsumedTotal  int64 `json:"consumed_total"`
	LedgerConsumed int64 `json:"ledger_consumed"`
	RejectedTotal  int64 `json:"rejected_total"`
	LedgerRejected int64 `json:"ledger_rejected"`
}

// Service coordinates aggregate query execution with the cache layer.
// It never mutates state.
type Service struct {
	repo   Repository
	ledger LedgerPort
	cache  *Cache
}

// NewService wires a Repository, the ledger read port and a Cache helper.
func NewService(repo Repository, ledgerPort LedgerPort, cache *Cache) *Service {
	return &Service{repo: repo, ledger: ledgerPort, cache: cache}
}

// Summarize returns the current registry summary, cached until the next write.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	var summary Summary
	key, err := s.cache.BuildKey(ctx, "reports", "summary")
	if err != nil {
		return Summary{}, err
	}
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (any, error) {
		return s.repo.ItemTotals(ctx)
	})
	return summary, err
}

// CategoryBreakdown groups windowed movements by the owning item's category.
func (s *Service) CategoryBreakdown(ctx context.Context, from, to time.Time) ([]CategoryRow, error) {
	var rows []CategoryRow
	key, err := s.cache.BuildKey(ctx, "reports", "categories", windowToken(from), windowToken(to))
	if err != nil {
		return nil, err
	}
	err = s.cache.FetchJSON(ctx, key, &rows, func(ctx context.Context) (any, error) {
		return s.repo.CategoryBreakdown(ctx, from, to)
	})
	return rows, err
}

// MovementsInWindow lists ledger entries inside the window, newest first.
func (s *Service) MovementsInWindow(ctx context.Context, from, to time.Time, limit int) ([]ledger.Entry, error) {
	return s.ledger.ListEntries(ctx, ledger.Filter{From: from, To: to, Limit: limit})
}

// Overview bundles the summary with the current window breakdown, fetching
// both concurrently.
type Overview struct {
	Summary    Summary       `json:"summary"`
	Categories []CategoryRow `json:"categories"`
}

// Overview runs the summary and breakdown queries in parallel.
func (s *Service) Overview(ctx context.Context, from, to time.Time) (Overview, error) {
	var overview Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.Summarize(ctx)
		if err != nil {
			return err
		}
		overview.Summary = summary
		return nil
	})
	g.Go(func() error {
		rows, err := s.CategoryBreakdown(ctx, from, to)
		if err != nil {
			return err
		}
		overview.Categories = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return overview, nil
}

// LowStockItems lists items at or below their threshold, for the scan job.
func (s *Service) LowStockItems(ctx context.Context) ([]LowStockItem, error) {
	return s.repo.LowStockItems(ctx)
}

// VerifyLedger replays every item's ledger and reports counter mismatches.
func (s *Service) VerifyLedger(ctx context.Context) ([]LedgerMismatch, error) {
	return s.repo.VerifyLedger(ctx)
}

func windowToken(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("20060102T150405")
}
