package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/curastock/curastock/internal/registry"
	"github.com/curastock/curastock/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListEntries(ctx context.Context, filter Filter) ([]Entry, error)
}

// TxRepository exposes the operations available inside the apply transaction.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, itemID int64) (ItemState, error)
	InsertEntry(ctx context.Context, entry Entry) (int64, error)
	UpdateItemCounters(ctx context.Context, state ItemState) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort records domain metrics for posted movements.
type MetricsPort interface {
	MovementPosted(direction, classification string)
}

// ReportInvalidator bumps derived report caches after a write.
type ReportInvalidator interface {
	Invalidate(ctx context.Context) error
}

// IdempotencyPort deduplicates retried movement requests.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Result is the outcome of a successful apply: the appended entry plus the
// counter snapshot it produced.
type Result struct {
	Entry  Entry           `json:"entry"`
	OnHand int64           `json:"on_hand"`
	Status registry.Status `json:"status"`
}

// Service coordinates the movement apply protocol.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency IdempotencyPort
	metrics     MetricsPort
	reports     ReportInvalidator
}

// NewService builds a Service. Audit, idempotency, metrics and report
// invalidation are optional collaborators.
func NewService(repo RepositoryPort, audit AuditPort, idem IdempotencyPort, metrics MetricsPort, reports ReportInvalidator) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, metrics: metrics, reports: reports}
}

// Apply validates and atomically applies a stock movement: the ledger entry
// and the registry counters change together or not at all. The item row is
// locked for the duration of the fold, so concurrent movements against the
// same item serialise while different items proceed independently.
func (s *Service) Apply(ctx context.Context, input ApplyInput) (Result, error) {
	if input.Quantity <= 0 {
		return Result{}, shared.ErrInvalidQuantity
	}
	if input.Direction != DirectionIn && input.Direction != DirectionOut {
		return Result{}, fmt.Errorf("%w: unknown direction %q", shared.ErrValidation, input.Direction)
	}
	if input.ItemID <= 0 {
		return Result{}, shared.ErrNotFound
	}
	if input.RefID != "" {
		if _, err := uuid.Parse(input.RefID); err != nil {
			return Result{}, fmt.Errorf("%w: invalid ref id: %v", shared.ErrValidation, err)
		}
	}
	classification := Classify(input.Direction, input.Remark, input.Rejection)
	actor := input.Actor
	if actor == "" {
		actor = shared.ActorFromContext(ctx)
	}

	insertedKey := false
	if s.idempotency != nil && input.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "ledger"); err != nil {
			return Result{}, err
		}
		insertedKey = true
	}

	now := time.Now().UTC()
	var result Result
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		state, err := tx.GetItemForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}
		if input.Direction == DirectionOut && input.Quantity > state.OnHand {
			return shared.ErrInsufficientStock
		}

		entry := Entry{
			ItemID:         input.ItemID,
			Direction:      input.Direction,
			Classification: classification,
			Quantity:       input.Quantity,
			Remark:         input.Remark,
			Actor:          actor,
			RefID:          input.RefID,
			OccurredAt:     now,
		}
		entryID, err := tx.InsertEntry(ctx, entry)
		if err != nil {
			return err
		}
		entry.ID = entryID

		switch {
		case input.Direction == DirectionIn:
			state.OnHand += input.Quantity
		case classification == ClassificationRejected:
			state.OnHand -= input.Quantity
			state.RejectedTotal += input.Quantity
		default:
			state.OnHand -= input.Quantity
			state.ConsumedTotal += input.Quantity
		}
		if err := tx.UpdateItemCounters(ctx, state); err != nil {
			return err
		}

		result = Result{
			Entry:  entry,
			OnHand: state.OnHand,
			Status: registry.DeriveStatus(state.OnHand, state.LowStockThreshold),
		}
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, input.IdempotencyKey)
		}
		return Result{}, err
	}

	if s.metrics != nil {
		s.metrics.MovementPosted(string(input.Direction), string(classification))
	}
	if s.reports != nil {
		_ = s.reports.Invalidate(ctx)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Actor:    actor,
			Action:   fmt.Sprintf("ledger:%s", input.Direction),
			Entity:   "movement_entry",
			EntityID: fmt.Sprintf("%d", result.Entry.ID),
			Meta: map[string]any{
				"item_id":        input.ItemID,
				"quantity":       input.Quantity,
				"classification": string(classification),
				"remark":         input.Remark,
			},
		})
	}
	return result, nil
}

// ListEntries returns ledger entries within the filter window, newest first.
// The query is pure: no cursor state is kept between calls.
func (s *Service) ListEntries(ctx context.Context, filter Filter) ([]Entry, error) {
	if filter.Limit <= 0 {
		filter.Limit = 200
	}
	return s.repo.ListEntries(ctx, filter)
}
