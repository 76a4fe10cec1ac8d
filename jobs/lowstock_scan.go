package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/atelier-erp/atelier-erp/internal/inventory"
	jobmetrics "github.com/atelier-erp/atelier-erp/internal/jobs"
)

// LowStockScanJob raises reorders for materials sitting at or below their
// reorder level.
type LowStockScanJob struct {
	Inventory *inventory.Service
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(svc *inventory.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{Inventory: svc, Logger: logger, Metrics: metrics}
}

// Handle processes low stock scan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Inventory == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.ReorderFactor <= 0 {
		payload.ReorderFactor = 2
	}

	tracker := j.metrics().Track(TaskLowStockScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	items, err := j.Inventory.LowStock(ctx)
	if err != nil {
		resultErr = err
		logger.Error("list low stock", slog.Any("error", err))
		return resultErr
	}
	if len(items) == 0 {
		logger.Info("no low stock items")
		return resultErr
	}

	raised := 0
	for _, item := range items {
		quantity := item.ReorderLevel * payload.ReorderFactor
		if quantity <= 0 {
			continue
		}
		if _, err := j.Inventory.RaiseReorder(ctx, item.MaterialType, quantity); err != nil {
			resultErr = err
			logger.Error("raise reorder", slog.String("material", item.MaterialType), slog.Any("error", err))
			return resultErr
		}
		j.metrics().AddReorders(item.MaterialType, 1)
		raised++
	}
	logger.Info("low stock scan complete", slog.Int("reorders", raised))
	return resultErr
}

func (j *LowStockScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
