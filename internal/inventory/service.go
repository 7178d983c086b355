package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/pantry/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Items(ctx context.Context, unitID string) ([]Item, error)
	Transactions(ctx context.Context, unitID string) ([]StockTransaction, error)
	Save(ctx context.Context, unitID string, items []Item, ledger []StockTransaction) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort claims request keys for replay-sensitive batch operations.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// MetricsPort receives ledger counters.
type MetricsPort interface {
	ObserveTransactions(unitID, movementType string, n int)
	ObserveSkipped(operation, reason string, n int)
}

// ChangeNotifier is told when a unit's stock changes so derived views can refresh.
type ChangeNotifier interface {
	Bump(ctx context.Context, unitID string) error
}

// ServiceConfig groups optional collaborators.
type ServiceConfig struct {
	Logger   *slog.Logger
	Locks    *shared.UnitLocks
	Metrics  MetricsPort
	Notifier ChangeNotifier
	Now      func() time.Time
	NewID    func() string
}

// Service coordinates inventory operations. Mutations of one unit are
// serialised through Locks: load snapshot, apply engine, save all.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency IdempotencyPort
	logger      *slog.Logger
	locks       *shared.UnitLocks
	metrics     MetricsPort
	notifier    ChangeNotifier
	now         func() time.Time
	newID       func() string
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem IdempotencyPort, cfg ServiceConfig) *Service {
	s := &Service{
		repo:        repo,
		audit:       audit,
		idempotency: idem,
		logger:      cfg.Logger,
		locks:       cfg.Locks,
		metrics:     cfg.Metrics,
		notifier:    cfg.Notifier,
		now:         cfg.Now,
		newID:       cfg.NewID,
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
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// BulkInput describes a bulk movement request.
type BulkInput struct {
	Type           MovementType
	Reason         string
	Lines          []BulkLine
	IdempotencyKey string
}

// BatchResult reports the outcome of a bulk movement or stock count.
type BatchResult struct {
	Transactions []StockTransaction `json:"transactions"`
	Skipped      []SkippedEntry     `json:"skipped"`
	// Items is the unit's item collection after the batch.
	Items []Item `json:"-"`
}

// CountInput describes a stock-count finalisation.
type CountInput struct {
	Counts         []Count
	IdempotencyKey string
}

// Units lists the known restaurant units.
func (s *Service) Units() []RestaurantUnit {
	out := make([]RestaurantUnit, len(Units))
	copy(out, Units)
	return out
}

// ListItems returns the unit's items matching query, ordered by category then name.
func (s *Service) ListItems(ctx context.Context, unitID, query string) ([]Item, error) {
	if !KnownUnit(unitID) {
		return nil, ErrUnknownUnit
	}
	items, err := s.repo.Items(ctx, unitID)
	if err != nil {
		return nil, err
	}
	out := Search(items, query)
	shared.SortFold(out, func(i Item) string { return i.Category }, func(i Item) string { return i.Name })
	return out, nil
}

// Snapshot returns the unit's items in stored order.
func (s *Service) Snapshot(ctx context.Context, unitID string) ([]Item, error) {
	if !KnownUnit(unitID) {
		return nil, ErrUnknownUnit
	}
	return s.repo.Items(ctx, unitID)
}

// GetItem returns one item.
func (s *Service) GetItem(ctx context.Context, unitID, itemID string) (Item, error) {
	items, err := s.Snapshot(ctx, unitID)
	if err != nil {
		return Item{}, err
	}
	item, ok := FindItem(items, itemID)
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return item, nil
}

// CreateItem registers a new item in the unit.
func (s *Service) CreateItem(ctx context.Context, unitID string, input ItemInput) (Item, error) {
	if err := validateItemInput(input); err != nil {
		return Item{}, err
	}
	var created Item
	err := s.mutate(ctx, unitID, func(items []Item, stamp Stamp) ([]Item, error) {
		created = NewItem(input, unitID, stamp)
		return append(cloneItems(items), created), nil
	})
	if err != nil {
		return Item{}, err
	}
	s.record(ctx, unitID, "item.create", "item", created.ID, map[string]any{"name": created.Name, "price": created.Price})
	return created, nil
}

// UpdateItem merges patch into the item.
func (s *Service) UpdateItem(ctx context.Context, unitID, itemID string, patch ItemPatch) (Item, error) {
	if err := validatePatch(patch); err != nil {
		return Item{}, err
	}
	var updated Item
	err := s.mutate(ctx, unitID, func(items []Item, stamp Stamp) ([]Item, error) {
		out, item, ok := EditItem(items, itemID, patch, stamp)
		if !ok {
			return nil, ErrItemNotFound
		}
		updated = item
		return out, nil
	})
	if err != nil {
		return Item{}, err
	}
	s.record(ctx, unitID, "item.update", "item", itemID, map[string]any{"price": updated.Price})
	return updated, nil
}

// DeleteItem removes the item. Its transactions stay in the ledger.
func (s *Service) DeleteItem(ctx context.Context, unitID, itemID string) error {
	err := s.mutate(ctx, unitID, func(items []Item, _ Stamp) ([]Item, error) {
		out, ok := DeleteItem(items, itemID)
		if !ok {
			return nil, ErrItemNotFound
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, unitID, "item.delete", "item", itemID, nil)
	return nil
}

// RegisterMovement posts a single manual movement.
func (s *Service) RegisterMovement(ctx context.Context, unitID string, mv SingleMovement) (Item, StockTransaction, error) {
	if !mv.Type.Valid() || !mv.Type.Manual() {
		return Item{}, StockTransaction{}, ErrInvalidMovementType
	}
	if !(mv.Quantity > 0) {
		return Item{}, StockTransaction{}, ErrInvalidQuantity
	}
	if mv.NewCost != nil && *mv.NewCost < 0 {
		return Item{}, StockTransaction{}, ErrInvalidItem
	}
	var (
		item Item
		tx   StockTransaction
	)
	err := s.mutateLedger(ctx, unitID, func(items []Item, stamp Stamp) ([]Item, []StockTransaction, error) {
		out, t, ok := ApplySingleMovement(items, mv, stamp)
		if !ok {
			return nil, nil, ErrItemNotFound
		}
		item, _ = FindItem(out, mv.ItemID)
		tx = t
		return out, []StockTransaction{t}, nil
	})
	if err != nil {
		return Item{}, StockTransaction{}, err
	}
	s.observe(unitID, []StockTransaction{tx})
	s.record(ctx, unitID, "inventory:"+string(mv.Type), "stock_tx", tx.ID, map[string]any{
		"item_id": mv.ItemID,
		"qty":     mv.Quantity,
	})
	return item, tx, nil
}

// RegisterBulkMovement applies one movement type to many items at once.
// Unknown items and non-positive quantities are skipped and reported.
func (s *Service) RegisterBulkMovement(ctx context.Context, unitID string, input BulkInput) (BatchResult, error) {
	if !input.Type.Valid() || !input.Type.Manual() {
		return BatchResult{}, ErrInvalidMovementType
	}
	for _, line := range input.Lines {
		if line.Cost != nil && *line.Cost < 0 {
			return BatchResult{}, ErrInvalidItem
		}
	}
	var result BatchResult
	err := s.withIdempotency(ctx, input.IdempotencyKey, "inventory.bulk:"+unitID, func() error {
		return s.mutateLedger(ctx, unitID, func(items []Item, stamp Stamp) ([]Item, []StockTransaction, error) {
			out, txs, report := ApplyBulkMovement(items, input.Lines, input.Type, strings.TrimSpace(input.Reason), stamp)
			result = BatchResult{Transactions: txs, Skipped: report.Entries, Items: out}
			return out, txs, nil
		})
	})
	if err != nil {
		return BatchResult{}, err
	}
	s.finishBatch(ctx, unitID, "bulk", result)
	return result, nil
}

// FinalizeStockCount reconciles physical counts against system quantities.
func (s *Service) FinalizeStockCount(ctx context.Context, unitID string, input CountInput) (BatchResult, error) {
	var result BatchResult
	err := s.withIdempotency(ctx, input.IdempotencyKey, "inventory.count:"+unitID, func() error {
		return s.mutateLedger(ctx, unitID, func(items []Item, stamp Stamp) ([]Item, []StockTransaction, error) {
			out, txs, report := ReconcileStockCount(items, input.Counts, stamp)
			result = BatchResult{Transactions: txs, Skipped: report.Entries, Items: out}
			return out, txs, nil
		})
	})
	if err != nil {
		return BatchResult{}, err
	}
	s.finishBatch(ctx, unitID, "stock_count", result)
	return result, nil
}

// ListTransactions returns one page of the unit's ledger, newest first.
func (s *Service) ListTransactions(ctx context.Context, unitID string, filter TransactionFilter) ([]StockTransaction, shared.Pagination, error) {
	if !KnownUnit(unitID) {
		return nil, shared.Pagination{}, ErrUnknownUnit
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, shared.Pagination{}, ErrInvalidMovementType
	}
	txs, err := s.repo.Transactions(ctx, unitID)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	page, p := shared.Page(FilterTransactions(txs, filter), filter.Page, filter.PerPage)
	return page, p, nil
}

// Summary computes the unit's dashboard figures.
func (s *Service) Summary(ctx context.Context, unitID string) (Summary, error) {
	items, err := s.Snapshot(ctx, unitID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(items), nil
}

// Seed loads the catalogue into a unit that has no items yet. It reports how
// many items were created.
func (s *Service) Seed(ctx context.Context, unitID string, catalog []CatalogEntry) (int, error) {
	var seeded int
	err := s.mutate(ctx, unitID, func(items []Item, stamp Stamp) ([]Item, error) {
		if len(items) > 0 {
			return items, nil
		}
		out := SeedItems(catalog, unitID, stamp)
		seeded = len(out)
		return out, nil
	})
	if err != nil {
		return 0, err
	}
	if seeded > 0 {
		s.logger.Info("seeded unit", slog.String("unit_id", unitID), slog.Int("items", seeded))
	}
	return seeded, nil
}

func (s *Service) stamp(ctx context.Context) Stamp {
	return Stamp{At: s.now(), Actor: shared.ActorFromContext(ctx), NewID: s.newID}
}

// mutate runs fn against the unit's items under the unit lock and saves the result.
func (s *Service) mutate(ctx context.Context, unitID string, fn func([]Item, Stamp) ([]Item, error)) error {
	if !KnownUnit(unitID) {
		return ErrUnknownUnit
	}
	unlock := s.locks.Lock(unitID)
	defer unlock()
	items, err := s.repo.Items(ctx, unitID)
	if err != nil {
		return err
	}
	out, err := fn(items, s.stamp(ctx))
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, unitID, out, nil); err != nil {
		return err
	}
	s.notify(ctx, unitID)
	return nil
}

// mutateLedger is mutate for operations that append transactions.
func (s *Service) mutateLedger(ctx context.Context, unitID string, fn func([]Item, Stamp) ([]Item, []StockTransaction, error)) error {
	if !KnownUnit(unitID) {
		return ErrUnknownUnit
	}
	unlock := s.locks.Lock(unitID)
	defer unlock()
	items, err := s.repo.Items(ctx, unitID)
	if err != nil {
		return err
	}
	ledger, err := s.repo.Transactions(ctx, unitID)
	if err != nil {
		return err
	}
	out, txs, err := fn(items, s.stamp(ctx))
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		return nil
	}
	if err := s.repo.Save(ctx, unitID, out, append(ledger, txs...)); err != nil {
		return err
	}
	s.notify(ctx, unitID)
	return nil
}

func (s *Service) withIdempotency(ctx context.Context, key, module string, fn func() error) error {
	if key == "" || s.idempotency == nil {
		return fn()
	}
	if err := s.idempotency.CheckAndInsert(ctx, key, module); err != nil {
		return fmt.Errorf("inventory: %w", err)
	}
	if err := fn(); err != nil {
		if delErr := s.idempotency.Delete(ctx, key, module); delErr != nil {
			s.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", delErr))
		}
		return err
	}
	return nil
}

func (s *Service) finishBatch(ctx context.Context, unitID, operation string, result BatchResult) {
	s.observe(unitID, result.Transactions)
	if len(result.Skipped) > 0 {
		reasons := make(map[SkipReason]int)
		for _, e := range result.Skipped {
			reasons[e.Reason]++
		}
		for reason, n := range reasons {
			if s.metrics != nil {
				s.metrics.ObserveSkipped(operation, string(reason), n)
			}
		}
		s.logger.Warn("batch entries skipped",
			slog.String("unit_id", unitID),
			slog.String("operation", operation),
			slog.Int("skipped", len(result.Skipped)),
		)
	}
	if len(result.Transactions) == 0 {
		return
	}
	s.record(ctx, unitID, "inventory:"+operation, "stock_batch", result.Transactions[0].ID, map[string]any{
		"transactions": len(result.Transactions),
		"skipped":      len(result.Skipped),
	})
}

func (s *Service) observe(unitID string, txs []StockTransaction) {
	if s.metrics == nil {
		return
	}
	counts := make(map[MovementType]int)
	for _, tx := range txs {
		counts[tx.Type]++
	}
	for t, n := range counts {
		s.metrics.ObserveTransactions(unitID, string(t), n)
	}
}

func (s *Service) notify(ctx context.Context, unitID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Bump(ctx, unitID); err != nil {
		s.logger.Warn("notify stock change", slog.String("unit_id", unitID), slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, unitID, action, entity, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Actor:    shared.ActorFromContext(ctx),
		Action:   action,
		UnitID:   unitID,
		Entity:   entity,
		EntityID: entityID,
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}

func validateItemInput(input ItemInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidItem)
	}
	for _, v := range []float64{input.Quantity, input.Price, input.MinStock} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: negative value", ErrInvalidItem)
		}
	}
	return nil
}

func validatePatch(patch ItemPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidItem)
	}
	for _, v := range []*float64{patch.Price, patch.MinStock} {
		if v != nil && (*v < 0 || math.IsNaN(*v)) {
			return fmt.Errorf("%w: negative value", ErrInvalidItem)
		}
	}
	return nil
}
