package purchasing

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/odyssey-erp/pantry/internal/inventory"
	"github.com/odyssey-erp/pantry/internal/store"
)

// MaxStoredReports bounds the per-unit report history.
const MaxStoredReports = 30

// ItemSource yields the current item snapshot of a unit.
type ItemSource interface {
	Snapshot(ctx context.Context, unitID string) ([]inventory.Item, error)
}

// Service serves recommendations and keeps a history of published reports.
type Service struct {
	items  ItemSource
	docs   store.DocumentStore
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service. docs may be nil when history is not kept.
func NewService(items ItemSource, docs store.DocumentStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{items: items, docs: docs, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Current computes the report from the unit's live items.
func (s *Service) Current(ctx context.Context, unitID string) (Report, error) {
	items, err := s.items.Snapshot(ctx, unitID)
	if err != nil {
		return Report{}, err
	}
	return Build(unitID, items, s.now()), nil
}

// Publish computes the current report and appends it to the stored history.
func (s *Service) Publish(ctx context.Context, unitID string) (Report, error) {
	report, err := s.Current(ctx, unitID)
	if err != nil {
		return Report{}, err
	}
	if s.docs == nil {
		return report, nil
	}
	history, err := s.stored(ctx, unitID)
	if err != nil {
		return Report{}, err
	}
	history = append(history, report)
	if len(history) > MaxStoredReports {
		history = history[len(history)-MaxStoredReports:]
	}
	if err := s.docs.SaveAll(ctx, store.Document{Collection: store.CollectionPurchaseReports, UnitID: unitID, Value: history}); err != nil {
		return Report{}, err
	}
	s.logger.Info("purchase report published",
		slog.String("unit_id", unitID),
		slog.Int("lines", report.TotalLines),
	)
	return report, nil
}

// History returns stored reports, newest first.
func (s *Service) History(ctx context.Context, unitID string) ([]Report, error) {
	if !inventory.KnownUnit(unitID) {
		return nil, inventory.ErrUnknownUnit
	}
	reports, err := s.stored(ctx, unitID)
	if err != nil {
		return nil, err
	}
	slices.Reverse(reports)
	return reports, nil
}

// stored loads the history in publication order.
func (s *Service) stored(ctx context.Context, unitID string) ([]Report, error) {
	reports := []Report{}
	if s.docs == nil {
		return reports, nil
	}
	if err := store.LoadOrEmpty(ctx, s.docs, store.CollectionPurchaseReports, unitID, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}
