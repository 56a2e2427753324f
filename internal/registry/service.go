package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/curastock/curastock/internal/shared"
)

// RegisterInput carries the fields needed to register a new stock item.
type RegisterInput struct {
	Code              string
	Name              string
	Category          string
	Unit              string
	InitialStock      int64
	LowStockThreshold int64
	Actor             string
}

// ListFilters narrows and pages item listings.
type ListFilters struct {
	Search          string
	Category        string
	Status          Status
	IncludeArchived bool
	Page            int
	Limit           int
	SortBy          string
	SortDir         string
}

// Service exposes registry operations over the repository.
type Service struct {
	repo    Repository
	audit   AuditPort
	reports ReportInvalidator
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ReportInvalidator bumps derived report caches after a write. Registering
// and archiving both change summary counts.
type ReportInvalidator interface {
	Invalidate(ctx context.Context) error
}

// NewService builds a Service. Audit and report invalidation are optional
// collaborators.
func NewService(repo Repository, audit AuditPort, reports ReportInvalidator) *Service {
	return &Service{repo: repo, audit: audit, reports: reports}
}

// Register creates a stock item. When initial stock is positive the repository
// seeds a matching IN ledger entry in the same transaction so counters and
// ledger start consistent.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Item, error) {
	if err := validateRegisterInput(input); err != nil {
		return Item{}, err
	}
	item := Item{
		Code:              strings.TrimSpace(input.Code),
		Name:              strings.TrimSpace(input.Name),
		Category:          strings.TrimSpace(input.Category),
		Unit:              strings.TrimSpace(input.Unit),
		OnHand:            input.InitialStock,
		LowStockThreshold: input.LowStockThreshold,
	}
	actor := input.Actor
	if actor == "" {
		actor = shared.ActorFromContext(ctx)
	}
	created, err := s.repo.Create(ctx, item, seedMovement(input, actor))
	if err != nil {
		return Item{}, err
	}
	if s.reports != nil {
		_ = s.reports.Invalidate(ctx)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Actor:    actor,
			Action:   "registry:register",
			Entity:   "stock_item",
			EntityID: fmt.Sprintf("%d", created.ID),
			Meta: map[string]any{
				"code":          created.Code,
				"initial_stock": input.InitialStock,
			},
		})
	}
	return created, nil
}

func seedMovement(input RegisterInput, actor string) *SeedEntry {
	if input.InitialStock <= 0 {
		return nil
	}
	return &SeedEntry{
		Quantity: input.InitialStock,
		Remark:   "Initial stock",
		Actor:    actor,
	}
}

// Get fetches a single item by id.
func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	if id <= 0 {
		return Item{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns items matching the filters along with the unfiltered total.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Item, int, error) {
	return s.repo.List(ctx, filters)
}

// Archive soft-deletes an item. Ledger history is kept; archived items drop
// out of listings and summaries.
func (s *Service) Archive(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.repo.Archive(ctx, id); err != nil {
		return err
	}
	if s.reports != nil {
		_ = s.reports.Invalidate(ctx)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Actor:    shared.ActorFromContext(ctx),
			Action:   "registry:archive",
			Entity:   "stock_item",
			EntityID: fmt.Sprintf("%d", id),
		})
	}
	return nil
}
