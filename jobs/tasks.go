package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRollupRefresh recomputes the dashboard rollups and invalidates the cache.
	TaskRollupRefresh = "rollup:refresh"
	// TaskLowStockScan raises reorders for stock below its threshold.
	TaskLowStockScan = "inventory:lowstock"
)

// Refresh triggers recorded in the task payload.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// RollupRefreshPayload records what triggered the refresh.
type RollupRefreshPayload struct {
	Trigger string `json:"trigger"`
}

// NewRollupRefreshTask builds a refresh task.
func NewRollupRefreshTask(trigger string) (*asynq.Task, error) {
	body, err := json.Marshal(RollupRefreshPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRollupRefresh, body, asynq.Queue(QueueDefault)), nil
}

// LowStockScanPayload tunes the reorder scan.
type LowStockScanPayload struct {
	// ReorderFactor scales the reorder level into the quantity ordered.
	ReorderFactor float64 `json:"reorderFactor"`
}

// NewLowStockScanTask builds a low stock scan task.
func NewLowStockScanTask(reorderFactor float64) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{ReorderFactor: reorderFactor})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}
