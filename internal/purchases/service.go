package purchases

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
	"github.com/konta-pos/konta-pos/internal/shared"
)

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records goods receipts.
type Service struct {
	repo   Repository
	audit  AuditRecorder
	logger *slog.Logger
}

// NewService wires the purchases service.
func NewService(repo Repository, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Receive records a purchase and adds the received quantities to
// stock, all in one transaction.
func (s *Service) Receive(ctx context.Context, in ReceivePurchaseInput) (PurchaseDetail, error) {
	var detail PurchaseDetail

	if in.SupplierID <= 0 {
		return detail, fmt.Errorf("%w: supplier required", httpx.ErrValidation)
	}
	if len(in.Items) == 0 {
		return detail, fmt.Errorf("%w: purchase needs at least one item", httpx.ErrValidation)
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 {
			return detail, fmt.Errorf("%w: item quantities must be positive", httpx.ErrValidation)
		}
		if it.UnitCost < 0 {
			return detail, fmt.Errorf("%w: unit cost cannot be negative", httpx.ErrValidation)
		}
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		purchase := Purchase{
			SupplierID: in.SupplierID,
			BuyerID:    in.BuyerID,
			Notes:      in.Notes,
			ReceivedAt: time.Now(),
		}

		items := make([]PurchaseItem, 0, len(in.Items))
		for _, line := range in.Items {
			if err := tx.ProductExists(ctx, line.ProductID); err != nil {
				return err
			}
			lineTotal := float64(line.Quantity) * line.UnitCost
			purchase.Total += lineTotal
			items = append(items, PurchaseItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitCost:  line.UnitCost,
				LineTotal: lineTotal,
			})
		}

		if err := tx.InsertPurchase(ctx, &purchase); err != nil {
			return err
		}
		if err := tx.InsertItems(ctx, purchase.ID, items); err != nil {
			return err
		}
		for _, it := range items {
			if err := tx.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
			if err := tx.InsertMovement(ctx, it.ProductID, it.Quantity, purchase.ID); err != nil {
				return err
			}
		}

		detail = PurchaseDetail{Purchase: purchase, Items: items}
		return nil
	})
	if err != nil {
		return PurchaseDetail{}, err
	}

	if s.audit != nil {
		entry := shared.AuditLog{
			ActorID:  in.BuyerID,
			Action:   "purchase.receive",
			Entity:   "purchase",
			EntityID: strconv.FormatInt(detail.Purchase.ID, 10),
			Meta:     map[string]any{"supplier_id": in.SupplierID, "total": detail.Purchase.Total},
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Warn("purchases: audit record failed", "error", err)
		}
	}
	return detail, nil
}

// Get returns one purchase with its items.
func (s *Service) Get(ctx context.Context, id int64) (PurchaseDetail, error) {
	return s.repo.Get(ctx, id)
}

// List returns purchases matching the filters.
func (s *Service) List(ctx context.Context, f PurchaseFilters) ([]Purchase, int64, error) {
	return s.repo.List(ctx, f)
}
