package returns

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/konta-pos/konta-pos/internal/billing"
	"github.com/konta-pos/konta-pos/internal/platform/httpx"
	"github.com/konta-pos/konta-pos/internal/shared"
)

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service processes returns into credit notes.
type Service struct {
	repo   Repository
	audit  AuditRecorder
	logger *slog.Logger
}

// NewService wires the returns service.
func NewService(repo Repository, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// ProcessReturn validates the request against what the invoice sold,
// minus what earlier credit notes already returned, then writes the
// credit note, its items and the stock increments in one transaction.
func (s *Service) ProcessReturn(ctx context.Context, in ProcessReturnInput) (CreditNoteDetail, error) {
	var detail CreditNoteDetail

	if strings.TrimSpace(in.Reason) == "" {
		return detail, fmt.Errorf("%w: reason is required", httpx.ErrValidation)
	}
	if len(in.Items) == 0 {
		return detail, fmt.Errorf("%w: return needs at least one item", httpx.ErrValidation)
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 {
			return detail, fmt.Errorf("%w: item quantities must be positive", httpx.ErrValidation)
		}
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		status, err := tx.GetInvoiceStatus(ctx, in.InvoiceID)
		if err != nil {
			return err
		}
		if status != billing.StatusPaid && status != billing.StatusReportedDIAN {
			return fmt.Errorf("%w: invoice %d is %s", ErrInvoiceNotReturnable, in.InvoiceID, status)
		}

		sold, err := tx.GetSoldLines(ctx, in.InvoiceID)
		if err != nil {
			return err
		}
		returned, err := tx.GetReturnedQuantities(ctx, in.InvoiceID)
		if err != nil {
			return err
		}

		note := CreditNote{
			InvoiceID: in.InvoiceID,
			Reason:    strings.TrimSpace(in.Reason),
			CreatedBy: in.UserID,
			CreatedAt: time.Now(),
		}

		items := make([]CreditNoteItem, 0, len(in.Items))
		for _, line := range in.Items {
			soldLine, ok := sold[line.ProductID]
			if !ok {
				return fmt.Errorf("%w: product %d was not on invoice %d", httpx.ErrValidation, line.ProductID, in.InvoiceID)
			}
			remaining := soldLine.Quantity - returned[line.ProductID]
			if line.Quantity > remaining {
				return fmt.Errorf("%w: product %d has %d returnable units", ErrReturnExceedsSold, line.ProductID, remaining)
			}

			lineTotal := float64(line.Quantity) * soldLine.UnitPrice
			note.Total += lineTotal
			items = append(items, CreditNoteItem{
				ProductID:   line.ProductID,
				ProductName: soldLine.ProductName,
				Quantity:    line.Quantity,
				UnitPrice:   soldLine.UnitPrice,
				LineTotal:   lineTotal,
			})
		}

		if err := tx.InsertCreditNote(ctx, &note); err != nil {
			return err
		}
		if err := tx.InsertItems(ctx, note.ID, items); err != nil {
			return err
		}
		for _, it := range items {
			if err := tx.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
			if err := tx.InsertMovement(ctx, it.ProductID, it.Quantity, note.ID); err != nil {
				return err
			}
		}

		detail = CreditNoteDetail{CreditNote: note, Items: items}
		return nil
	})
	if err != nil {
		return CreditNoteDetail{}, err
	}

	if s.audit != nil {
		entry := shared.AuditLog{
			ActorID:  in.UserID,
			Action:   "return.process",
			Entity:   "credit_note",
			EntityID: strconv.FormatInt(detail.CreditNote.ID, 10),
			Meta:     map[string]any{"invoice_id": in.InvoiceID, "total": detail.CreditNote.Total},
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Warn("returns: audit record failed", "error", err)
		}
	}
	return detail, nil
}

// Get returns one credit note with its items.
func (s *Service) Get(ctx context.Context, id int64) (CreditNoteDetail, error) {
	return s.repo.GetCreditNote(ctx, id)
}

// ListByInvoice returns all credit notes issued against an invoice.
func (s *Service) ListByInvoice(ctx context.Context, invoiceID int64) ([]CreditNote, error) {
	return s.repo.ListByInvoice(ctx, invoiceID)
}
