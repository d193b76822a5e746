package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/konta-pos/konta-pos/internal/dian"
	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

// NewDianReportHandler reports the invoice from the payload. Conflicts
// (already reported, wrong kind) skip the retry loop: retrying will
// never change the outcome.
func NewDianReportHandler(svc *dian.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload DianReportPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		doc, err := svc.Report(ctx, payload.InvoiceID)
		if err != nil {
			if errors.Is(err, httpx.ErrConflict) || errors.Is(err, httpx.ErrNotFound) {
				logger.Warn("dian report skipped", "invoice_id", payload.InvoiceID, "error", err)
				return asynq.SkipRetry
			}
			return err
		}
		logger.Info("dian report done", "invoice_id", payload.InvoiceID, "cufe", doc.CUFE)
		return nil
	}
}
