// Package jobs holds the Asynq task definitions and the worker
// bootstrap shared by cmd/worker and the API's enqueue paths.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskDianReport submits one invoice to DIAN asynchronously.
	TaskDianReport = "dian:report"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
	// TaskReportsWarmup rebuilds the dashboard report cache.
	TaskReportsWarmup = "reports:warmup"
)

// DianReportPayload identifies the invoice to report.
type DianReportPayload struct {
	InvoiceID int64 `json:"invoice_id"`
}

// NewDianReportTask constructs a dian:report task.
func NewDianReportTask(invoiceID int64) (*asynq.Task, error) {
	data, err := json.Marshal(DianReportPayload{InvoiceID: invoiceID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDianReport, data), nil
}

// NewIdempotencyCleanupTask constructs the cleanup cron task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}

// NewReportsWarmupTask constructs the warmup cron task.
func NewReportsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskReportsWarmup, nil)
}
