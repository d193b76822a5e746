package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
	salesshared "github.com/konta-pos/konta-pos/internal/sales/shared"
	"github.com/konta-pos/konta-pos/internal/shared"
)

// IdempotencyGuard deduplicates commit retries.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the sale commit and invoice queries.
type Service struct {
	repo   Repository
	idem   IdempotencyGuard
	audit  AuditRecorder
	logger *slog.Logger
}

// NewService wires the billing service.
func NewService(repo Repository, idem IdempotencyGuard, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, idem: idem, audit: audit, logger: logger}
}

// CommitSale turns a validated set of sale lines into a paid invoice.
// Invoice, items, stock decrements, movement rows and the optional
// sales-order transition all commit in one transaction; any failure
// rolls everything back.
func (s *Service) CommitSale(ctx context.Context, in CommitSaleInput) (InvoiceDetail, error) {
	var detail InvoiceDetail

	if err := validateCommit(in); err != nil {
		return detail, err
	}

	if in.IdempotencyKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, in.IdempotencyKey, "billing"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return detail, fmt.Errorf("%w: sale already committed", httpx.ErrDuplicate)
			}
			return detail, err
		}
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv := Invoice{
			Kind:       in.Kind,
			Status:     StatusPaid,
			CustomerID: in.CustomerID,
			SellerID:   in.SellerID,
			IssuedAt:   time.Now(),
		}

		items := make([]InvoiceItem, 0, len(in.Items))
		for _, line := range in.Items {
			product, err := tx.GetProductForSale(ctx, line.ProductID)
			if err != nil {
				return err
			}

			discount, tax, total := salesshared.CalculateLineTotals(
				float64(line.Quantity), product.Price, line.DiscountPercent, product.TaxRate)

			inv.Subtotal += float64(line.Quantity) * product.Price
			inv.Discount += discount
			inv.Tax += tax
			inv.Total += total

			if err := tx.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}

			items = append(items, InvoiceItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				UnitPrice:   product.Price,
				Discount:    line.DiscountPercent,
				TaxRate:     product.TaxRate,
				TaxAmount:   tax,
				LineTotal:   total,
			})
		}

		if err := tx.InsertInvoice(ctx, &inv); err != nil {
			return err
		}
		if err := tx.InsertItems(ctx, inv.ID, items); err != nil {
			return err
		}
		for _, it := range items {
			if err := tx.InsertMovement(ctx, it.ProductID, -it.Quantity, "SALE", inv.ID); err != nil {
				return err
			}
		}

		if in.SalesOrderID != nil {
			if err := tx.MarkOrderExecuted(ctx, *in.SalesOrderID, inv.ID); err != nil {
				return err
			}
		}

		detail = InvoiceDetail{Invoice: inv, Items: items}
		return nil
	})
	if err != nil {
		// Free the key so a genuine retry of a failed commit can run.
		if in.IdempotencyKey != "" && s.idem != nil {
			if delErr := s.idem.Delete(ctx, in.IdempotencyKey); delErr != nil {
				s.logger.Warn("billing: idempotency key cleanup failed", "key", in.IdempotencyKey, "error", delErr)
			}
		}
		return InvoiceDetail{}, err
	}

	s.recordAudit(ctx, in.SellerID, "sale.commit", detail.Invoice)
	return detail, nil
}

// Get returns one invoice with its lines.
func (s *Service) Get(ctx context.Context, id int64) (InvoiceDetail, error) {
	return s.repo.GetInvoice(ctx, id)
}

// List returns invoices matching the filters plus the unfiltered count.
func (s *Service) List(ctx context.Context, f InvoiceFilters) ([]Invoice, int64, error) {
	return s.repo.ListInvoices(ctx, f)
}

// Cancel voids a draft or paid invoice. Stock is not restored here;
// reversing delivered goods goes through a credit note.
func (s *Service) Cancel(ctx context.Context, id, actorID int64) error {
	if err := s.repo.CancelInvoice(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "invoice.cancel", Invoice{ID: id})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, inv Invoice) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "invoice",
		EntityID: strconv.FormatInt(inv.ID, 10),
		Meta:     map[string]any{"number": inv.Number, "total": inv.Total, "kind": inv.Kind},
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("billing: audit record failed", "action", action, "error", err)
	}
}

func validateCommit(in CommitSaleInput) error {
	if !ValidKind(in.Kind) {
		return fmt.Errorf("%w: unknown invoice kind %q", httpx.ErrValidation, in.Kind)
	}
	if in.Kind == KindNormal && in.CustomerID == nil {
		return fmt.Errorf("%w: NORMAL invoices require a customer", httpx.ErrValidation)
	}
	if in.SellerID <= 0 {
		return fmt.Errorf("%w: seller required", httpx.ErrValidation)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: sale needs at least one item", httpx.ErrValidation)
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 {
			return fmt.Errorf("%w: item quantities must be positive", httpx.ErrValidation)
		}
		if it.DiscountPercent < 0 || it.DiscountPercent > 100 {
			return fmt.Errorf("%w: discount must be between 0 and 100", httpx.ErrValidation)
		}
	}
	return nil
}
