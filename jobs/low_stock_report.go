package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/pantry/internal/jobs"
	"github.com/odyssey-erp/pantry/internal/purchasing"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReportPublisher stores the current purchase report of a unit.
type ReportPublisher interface {
	Publish(ctx context.Context, unitID string) (purchasing.Report, error)
}

// LowStockReportJob publishes purchase reports and records low-stock gauges.
type LowStockReportJob struct {
	Reports ReportPublisher
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLowStockReportJob wires dependencies for the report handler.
func NewLowStockReportJob(reports ReportPublisher, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockReportJob {
	return &LowStockReportJob{Reports: reports, Logger: logger, Metrics: metrics}
}

// Handle processes TaskLowStockReport tasks. Every unit is attempted; the
// first failure is returned so the task is retried.
func (j *LowStockReportJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("low stock report: handler not configured")
	}
	payload, err := decodeUnitPayload(t)
	if err != nil {
		return err
	}

	tracker := metricsOrDefault(j.Metrics).Track(TaskLowStockReport)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := jobLogger(j.Logger, TaskLowStockReport)
	start := time.Now()
	for _, unitID := range payload.Units() {
		report, err := j.Reports.Publish(ctx, unitID)
		if err != nil {
			logger.Error("publish purchase report", slog.String("unit_id", unitID), slog.Any("error", err))
			if resultErr == nil {
				resultErr = err
			}
			continue
		}
		metricsOrDefault(j.Metrics).SetLowStock(unitID, report.TotalLines)
		logger.Info("purchase report published", slog.String("unit_id", unitID), slog.Int("lines", report.TotalLines))
	}
	logger.Info("completed low stock report", slog.Duration("duration", time.Since(start)))
	return resultErr
}

func jobLogger(logger *slog.Logger, job string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", job))
}

func metricsOrDefault(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}
