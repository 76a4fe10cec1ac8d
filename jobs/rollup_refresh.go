package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/atelier-erp/atelier-erp/internal/dashboard"
	jobmetrics "github.com/atelier-erp/atelier-erp/internal/jobs"
	"github.com/atelier-erp/atelier-erp/internal/observability"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// RollupRefreshJob recomputes the dashboard rollups so reads stay warm.
type RollupRefreshJob struct {
	Dashboard  *dashboard.Service
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	AppMetrics *observability.Metrics
}

// NewRollupRefreshJob wires dependencies for the refresh handler.
func NewRollupRefreshJob(svc *dashboard.Service, logger *slog.Logger, metrics *jobmetrics.Metrics, appMetrics *observability.Metrics) *RollupRefreshJob {
	return &RollupRefreshJob{Dashboard: svc, Logger: logger, Metrics: metrics, AppMetrics: appMetrics}
}

// Handle processes rollup refresh tasks.
func (j *RollupRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("rollup refresh: handler not configured")
	}
	var payload RollupRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Trigger == "" {
		payload.Trigger = TriggerSchedule
	}

	tracker := j.metrics().Track(TaskRollupRefresh)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("trigger", payload.Trigger))
	logger.Info("starting rollup refresh")

	if err := j.Dashboard.Refresh(ctx); err != nil {
		resultErr = err
		j.observe("error")
		logger.Error("refresh rollups", slog.Any("error", err))
		return resultErr
	}

	j.observe("ok")
	logger.Info("rollup refresh complete")
	return resultErr
}

func (j *RollupRefreshJob) observe(outcome string) {
	if j.AppMetrics != nil {
		j.AppMetrics.ObserveRefresh(outcome)
	}
}

func (j *RollupRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *RollupRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
