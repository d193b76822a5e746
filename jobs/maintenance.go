package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/konta-pos/konta-pos/internal/reports"
	"github.com/konta-pos/konta-pos/internal/shared"
)

// Idempotency keys older than this can no longer collide with a retry.
const idempotencyRetention = 48 * time.Hour

// NewIdempotencyCleanupHandler prunes stale idempotency keys.
func NewIdempotencyCleanupHandler(store *shared.IdempotencyStore, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := store.Cleanup(ctx, idempotencyRetention); err != nil {
			return err
		}
		logger.Info("idempotency cleanup done")
		return nil
	}
}

// NewReportsWarmupHandler rebuilds the dashboard cache off-peak so the
// first admin of the day does not pay the rebuild cost.
func NewReportsWarmupHandler(svc *reports.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := svc.Warmup(ctx); err != nil {
			return err
		}
		logger.Info("reports warmup done")
		return nil
	}
}
