package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/pantry/internal/inventory"
	jobmetrics "github.com/odyssey-erp/pantry/internal/jobs"
	"github.com/odyssey-erp/pantry/internal/purchasing"
)

type fakePublisher struct {
	mu    sync.Mutex
	units []string
	fail  string
}

func (f *fakePublisher) Publish(_ context.Context, unitID string) (purchasing.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.units = append(f.units, unitID)
	if unitID == f.fail {
		return purchasing.Report{}, errors.New("store down")
	}
	return purchasing.Report{UnitID: unitID, TotalLines: 2}, nil
}

type fakeItems struct{}

func (fakeItems) Snapshot(_ context.Context, unitID string) ([]inventory.Item, error) {
	return []inventory.Item{{ID: "1", UnitID: unitID}}, nil
}

type fakeInsights struct{ units []string }

func (f *fakeInsights) InventoryInsights(_ context.Context, unitID string, _ []inventory.Item) string {
	f.units = append(f.units, unitID)
	return "ok"
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *jobmetrics.Metrics {
	return jobmetrics.NewMetrics(prometheus.NewRegistry())
}

func TestUnitPayloadScope(t *testing.T) {
	require.Equal(t, []string{"P14"}, UnitPayload{UnitID: "P14"}.Units())
	require.Len(t, UnitPayload{}.Units(), len(inventory.Units))
}

func TestLowStockReportAllUnits(t *testing.T) {
	pub := &fakePublisher{}
	job := NewLowStockReportJob(pub, quietLogger(), testMetrics())
	task, err := NewLowStockReportTask("", time.Now())
	require.NoError(t, err)
	require.Equal(t, TaskLowStockReport, task.Type())

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []string{"P10", "P14", "AMS"}, pub.units)
}

func TestLowStockReportContinuesAfterFailure(t *testing.T) {
	pub := &fakePublisher{fail: "P10"}
	job := NewLowStockReportJob(pub, quietLogger(), testMetrics())
	task, err := NewLowStockReportTask("", time.Now())
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.EqualError(t, err, "store down")
	require.Len(t, pub.units, 3)
}

func TestHandlersRejectBadPayload(t *testing.T) {
	job := NewLowStockReportJob(&fakePublisher{}, quietLogger(), testMetrics())
	err := job.Handle(context.Background(), asynq.NewTask(TaskLowStockReport, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	task, err := NewLowStockReportTask("MARS", time.Now())
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)

	var nilJob *LowStockReportJob
	require.Error(t, nilJob.Handle(context.Background(), task))
}

func TestInsightsWarmupSingleUnit(t *testing.T) {
	gen := &fakeInsights{}
	job := NewInsightsWarmupJob(fakeItems{}, gen, quietLogger(), testMetrics())
	task, err := NewInsightsWarmupTask("AMS", time.Now())
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []string{"AMS"}, gen.units)
}

func TestWarmupOptionsReleaseTaskIDOnCompletion(t *testing.T) {
	opts := warmupOptions("P14")

	byType := make(map[asynq.OptionType]any, len(opts))
	for _, opt := range opts {
		byType[opt.Type()] = opt.Value()
	}
	require.Equal(t, "insights:warmup:P14", byType[asynq.TaskIDOpt])
	require.Equal(t, warmupDebounce, byType[asynq.ProcessInOpt])
	require.NotContains(t, byType, asynq.RetentionOpt, "a retained task would keep the ID reserved after it ran")
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(nil, quietLogger()).MountRoutes)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"queue":"default","pending":0,"active":0,"scheduled":0,"retry":0,"failed":0}`, rec.Body.String())
}
