package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/pantry/internal/inventory"
	jobmetrics "github.com/odyssey-erp/pantry/internal/jobs"
)

// ItemSource yields the current items of a unit.
type ItemSource interface {
	Snapshot(ctx context.Context, unitID string) ([]inventory.Item, error)
}

// InsightsGenerator produces and caches the narrative of a unit.
type InsightsGenerator interface {
	InventoryInsights(ctx context.Context, unitID string, items []inventory.Item) string
}

// InsightsWarmupJob pre-populates the insights cache after stock changes.
type InsightsWarmupJob struct {
	Items    ItemSource
	Insights InsightsGenerator
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	timeout  time.Duration
}

// NewInsightsWarmupJob wires dependencies for the warmup handler.
func NewInsightsWarmupJob(items ItemSource, insights InsightsGenerator, logger *slog.Logger, metrics *jobmetrics.Metrics) *InsightsWarmupJob {
	return &InsightsWarmupJob{
		Items:    items,
		Insights: insights,
		Logger:   logger,
		Metrics:  metrics,
		timeout:  60 * time.Second,
	}
}

// Handle processes TaskInsightsWarmup tasks.
func (j *InsightsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Items == nil || j.Insights == nil {
		return errors.New("insights warmup: handler not configured")
	}
	payload, err := decodeUnitPayload(t)
	if err != nil {
		return err
	}

	tracker := metricsOrDefault(j.Metrics).Track(TaskInsightsWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := jobLogger(j.Logger, TaskInsightsWarmup)
	warmed := 0
	for _, unitID := range payload.Units() {
		if err := j.warmUnit(ctx, unitID); err != nil {
			resultErr = err
			logger.Error("warm unit", slog.String("unit_id", unitID), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}
	logger.Info("completed insights warmup", slog.Int("units", warmed))
	return resultErr
}

func (j *InsightsWarmupJob) warmUnit(ctx context.Context, unitID string) error {
	unitCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	items, err := j.Items.Snapshot(unitCtx, unitID)
	if err != nil {
		return err
	}
	j.Insights.InventoryInsights(unitCtx, unitID, items)
	return nil
}
