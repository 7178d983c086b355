package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/pantry/internal/inventory"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockReport publishes the purchase report of each unit.
	TaskLowStockReport = "purchasing:low_stock_report"
	// TaskInsightsWarmup pre-computes the AI narrative of each unit.
	TaskInsightsWarmup = "insights:warmup"
)

// UnitPayload scopes a task to one unit. An empty UnitID means every known unit.
type UnitPayload struct {
	UnitID       string    `json:"unit_id,omitempty"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// Units resolves the payload scope.
func (p UnitPayload) Units() []string {
	if p.UnitID != "" {
		return []string{p.UnitID}
	}
	out := make([]string, len(inventory.Units))
	for i, u := range inventory.Units {
		out[i] = u.ID
	}
	return out
}

// NewLowStockReportTask constructs a low-stock report task.
func NewLowStockReportTask(unitID string, at time.Time) (*asynq.Task, error) {
	return newUnitTask(TaskLowStockReport, unitID, at)
}

// NewInsightsWarmupTask constructs an insights warmup task.
func NewInsightsWarmupTask(unitID string, at time.Time) (*asynq.Task, error) {
	return newUnitTask(TaskInsightsWarmup, unitID, at)
}

func newUnitTask(typename, unitID string, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(UnitPayload{UnitID: unitID, ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typename, body, asynq.Queue(QueueDefault)), nil
}

func decodeUnitPayload(t *asynq.Task) (UnitPayload, error) {
	var payload UnitPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return UnitPayload{}, asynq.SkipRetry
	}
	if payload.UnitID != "" && !inventory.KnownUnit(payload.UnitID) {
		return UnitPayload{}, asynq.SkipRetry
	}
	return payload, nil
}
