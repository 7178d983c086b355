package requests

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/pantry/internal/inventory"
	"github.com/odyssey-erp/pantry/internal/shared"
)

const approvalModule = "material_request"

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Requests(ctx context.Context, unitID string) ([]MaterialRequest, error)
	Items(ctx context.Context, unitID string) ([]inventory.Item, error)
	Transactions(ctx context.Context, unitID string) ([]inventory.StockTransaction, error)
	SaveRequests(ctx context.Context, unitID string, reqs []MaterialRequest) error
	SaveApproval(ctx context.Context, unitID string, items []inventory.Item, ledger []inventory.StockTransaction, reqs []MaterialRequest) error
}

// ApprovalPort records request decisions.
type ApprovalPort interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// ServiceConfig groups optional collaborators. Locks must be the instance the
// inventory service uses so approvals and movements serialise together.
type ServiceConfig struct {
	Logger   *slog.Logger
	Locks    *shared.UnitLocks
	Audit    inventory.AuditPort
	Metrics  inventory.MetricsPort
	Notifier inventory.ChangeNotifier
	Now      func() time.Time
}

// Service runs the material-request workflow.
type Service struct {
	repo      RepositoryPort
	approvals ApprovalPort
	audit     inventory.AuditPort
	metrics   inventory.MetricsPort
	notifier  inventory.ChangeNotifier
	logger    *slog.Logger
	locks     *shared.UnitLocks
	now       func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, approvals ApprovalPort, cfg ServiceConfig) *Service {
	s := &Service{
		repo:      repo,
		approvals: approvals,
		audit:     cfg.Audit,
		metrics:   cfg.Metrics,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
		locks:     cfg.Locks,
		now:       cfg.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.locks == nil {
		s.locks = shared.NewUnitLocks()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// CreateInput describes a single request.
type CreateInput struct {
	ItemID        string
	Quantity      float64
	Sector        Sector
	RequesterName string
}

// BulkInput describes requests for many items from one sector.
type BulkInput struct {
	Sector        Sector
	RequesterName string
	Lines         []Line
}

// BulkResult lists created requests and skipped lines.
type BulkResult struct {
	Requests []MaterialRequest        `json:"requests"`
	Skipped  []inventory.SkippedEntry `json:"skipped"`
}

// Create opens a pending request.
func (s *Service) Create(ctx context.Context, unitID string, input CreateInput) (MaterialRequest, error) {
	if !input.Sector.Valid() {
		return MaterialRequest{}, ErrInvalidSector
	}
	if !(input.Quantity > 0) {
		return MaterialRequest{}, ErrInvalidQuantity
	}
	var created MaterialRequest
	err := s.mutate(ctx, unitID, func(items []inventory.Item, reqs []MaterialRequest, stamp inventory.Stamp) ([]MaterialRequest, error) {
		item, ok := inventory.FindItem(items, input.ItemID)
		if !ok {
			return nil, inventory.ErrItemNotFound
		}
		created = CreateRequest(item, input.Quantity, input.Sector, strings.TrimSpace(input.RequesterName), stamp)
		return append(reqs, created), nil
	})
	if err != nil {
		return MaterialRequest{}, err
	}
	s.recordDecision(ctx, created, shared.ApprovalSubmit)
	return created, nil
}

// CreateBulk opens one request per valid line.
func (s *Service) CreateBulk(ctx context.Context, unitID string, input BulkInput) (BulkResult, error) {
	if !input.Sector.Valid() {
		return BulkResult{}, ErrInvalidSector
	}
	var result BulkResult
	err := s.mutate(ctx, unitID, func(items []inventory.Item, reqs []MaterialRequest, stamp inventory.Stamp) ([]MaterialRequest, error) {
		created, report := CreateBulkRequests(items, input.Lines, input.Sector, strings.TrimSpace(input.RequesterName), stamp)
		result = BulkResult{Requests: created, Skipped: report.Entries}
		return append(reqs, created...), nil
	})
	if err != nil {
		return BulkResult{}, err
	}
	if n := len(result.Skipped); n > 0 {
		if s.metrics != nil {
			s.metrics.ObserveSkipped("request_bulk", "skipped", n)
		}
		s.logger.Warn("bulk request lines skipped", slog.String("unit_id", unitID), slog.Int("skipped", n))
	}
	for _, req := range result.Requests {
		s.recordDecision(ctx, req, shared.ApprovalSubmit)
	}
	return result, nil
}

// List returns the unit's requests newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, unitID string, status Status) ([]MaterialRequest, error) {
	if !inventory.KnownUnit(unitID) {
		return nil, inventory.ErrUnknownUnit
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("requests: status: %w", shared.ErrInvalidInput)
	}
	reqs, err := s.repo.Requests(ctx, unitID)
	if err != nil {
		return nil, err
	}
	out := make([]MaterialRequest, 0, len(reqs))
	for i := len(reqs) - 1; i >= 0; i-- {
		if status == "" || reqs[i].Status == status {
			out = append(out, reqs[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].RequestedAt.After(out[b].RequestedAt)
	})
	return out, nil
}

// Approve releases stock for a pending request. On any error nothing is written.
func (s *Service) Approve(ctx context.Context, unitID, requestID string) (MaterialRequest, inventory.StockTransaction, error) {
	if !inventory.KnownUnit(unitID) {
		return MaterialRequest{}, inventory.StockTransaction{}, inventory.ErrUnknownUnit
	}
	unlock := s.locks.Lock(unitID)
	defer unlock()

	reqs, err := s.repo.Requests(ctx, unitID)
	if err != nil {
		return MaterialRequest{}, inventory.StockTransaction{}, err
	}
	idx := indexOf(reqs, requestID)
	if idx < 0 {
		return MaterialRequest{}, inventory.StockTransaction{}, ErrRequestNotFound
	}
	items, err := s.repo.Items(ctx, unitID)
	if err != nil {
		return MaterialRequest{}, inventory.StockTransaction{}, err
	}
	ledger, err := s.repo.Transactions(ctx, unitID)
	if err != nil {
		return MaterialRequest{}, inventory.StockTransaction{}, err
	}
	outItems, tx, approved, err := Approve(items, reqs[idx], s.stamp(ctx))
	if err != nil {
		return MaterialRequest{}, inventory.StockTransaction{}, err
	}
	reqs[idx] = approved
	if err := s.repo.SaveApproval(ctx, unitID, outItems, append(ledger, tx), reqs); err != nil {
		return MaterialRequest{}, inventory.StockTransaction{}, err
	}
	if s.metrics != nil {
		s.metrics.ObserveTransactions(unitID, string(tx.Type), 1)
	}
	if s.notifier != nil {
		if err := s.notifier.Bump(ctx, unitID); err != nil {
			s.logger.Warn("notify stock change", slog.String("unit_id", unitID), slog.Any("error", err))
		}
	}
	s.recordDecision(ctx, approved, shared.ApprovalApprove)
	return approved, tx, nil
}

// Reject closes a pending request without inventory effect.
func (s *Service) Reject(ctx context.Context, unitID, requestID string) (MaterialRequest, error) {
	if !inventory.KnownUnit(unitID) {
		return MaterialRequest{}, inventory.ErrUnknownUnit
	}
	unlock := s.locks.Lock(unitID)
	defer unlock()

	reqs, err := s.repo.Requests(ctx, unitID)
	if err != nil {
		return MaterialRequest{}, err
	}
	idx := indexOf(reqs, requestID)
	if idx < 0 {
		return MaterialRequest{}, ErrRequestNotFound
	}
	rejected, err := Reject(reqs[idx], s.stamp(ctx))
	if err != nil {
		return MaterialRequest{}, err
	}
	reqs[idx] = rejected
	if err := s.repo.SaveRequests(ctx, unitID, reqs); err != nil {
		return MaterialRequest{}, err
	}
	s.recordDecision(ctx, rejected, shared.ApprovalReject)
	return rejected, nil
}

func (s *Service) mutate(ctx context.Context, unitID string, fn func([]inventory.Item, []MaterialRequest, inventory.Stamp) ([]MaterialRequest, error)) error {
	if !inventory.KnownUnit(unitID) {
		return inventory.ErrUnknownUnit
	}
	unlock := s.locks.Lock(unitID)
	defer unlock()
	items, err := s.repo.Items(ctx, unitID)
	if err != nil {
		return err
	}
	reqs, err := s.repo.Requests(ctx, unitID)
	if err != nil {
		return err
	}
	out, err := fn(items, reqs, s.stamp(ctx))
	if err != nil {
		return err
	}
	return s.repo.SaveRequests(ctx, unitID, out)
}

func (s *Service) stamp(ctx context.Context) inventory.Stamp {
	return inventory.Stamp{At: s.now(), Actor: shared.ActorFromContext(ctx)}
}

func (s *Service) recordDecision(ctx context.Context, req MaterialRequest, action shared.ApprovalAction) {
	actor := shared.ActorFromContext(ctx)
	if s.approvals != nil {
		ref, err := uuid.Parse(req.ID)
		if err != nil {
			s.logger.Warn("approval log skipped", slog.String("request_id", req.ID), slog.Any("error", err))
		} else if err := s.approvals.Record(ctx, shared.ApprovalLog{
			Module: approvalModule,
			RefID:  ref,
			UnitID: req.UnitID,
			Actor:  actor,
			Action: action,
			Note:   fmt.Sprintf("%s %g %s (%s)", req.ItemName, req.Quantity, req.Unit, req.Sector),
			At:     s.now(),
		}); err != nil {
			s.logger.Warn("approval log", slog.String("request_id", req.ID), slog.Any("error", err))
		}
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			Actor:    actor,
			Action:   "request." + strings.ToLower(string(action)),
			UnitID:   req.UnitID,
			Entity:   "material_request",
			EntityID: req.ID,
			Meta:     map[string]any{"item_id": req.ItemID, "quantity": req.Quantity, "sector": req.Sector},
		}); err != nil {
			s.logger.Warn("audit record", slog.String("request_id", req.ID), slog.Any("error", err))
		}
	}
}

func indexOf(reqs []MaterialRequest, id string) int {
	for i := range reqs {
		if reqs[i].ID == id {
			return i
		}
	}
	return -1
}
