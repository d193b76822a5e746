package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/konta-pos/konta-pos/internal/billing"
	"github.com/konta-pos/konta-pos/internal/masterdata/products"
	"github.com/konta-pos/konta-pos/internal/platform/httpx"
	"github.com/konta-pos/konta-pos/internal/rbac"
	salesshared "github.com/konta-pos/konta-pos/internal/sales/shared"
	"github.com/konta-pos/konta-pos/internal/shared"
)

// ProductCatalog resolves products for quoting order lines.
type ProductCatalog interface {
	Get(ctx context.Context, id int64) (*products.Product, error)
}

// SaleCommitter turns an executed order into an invoice. The order's
// pending→executed flip happens inside the same commit transaction.
type SaleCommitter interface {
	CommitSale(ctx context.Context, in billing.CommitSaleInput) (billing.InvoiceDetail, error)
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service drives the sales-order lifecycle.
type Service struct {
	repo    Repository
	catalog ProductCatalog
	billing SaleCommitter
	audit   AuditRecorder
	logger  *slog.Logger
}

// NewService wires the orders service.
func NewService(repo Repository, catalog ProductCatalog, committer SaleCommitter, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, billing: committer, audit: audit, logger: logger}
}

// Create registers a pending order assigned to a seller. Lines are
// quoted at current catalog prices; stock is not touched until
// execution.
func (s *Service) Create(ctx context.Context, in CreateOrderInput) (OrderDetail, error) {
	var detail OrderDetail

	if in.CustomerID <= 0 {
		return detail, fmt.Errorf("%w: customer required", httpx.ErrValidation)
	}
	if in.SellerID <= 0 {
		return detail, fmt.Errorf("%w: seller required", httpx.ErrValidation)
	}
	if len(in.Items) == 0 {
		return detail, fmt.Errorf("%w: order needs at least one item", httpx.ErrValidation)
	}

	order := SalesOrder{
		CustomerID: in.CustomerID,
		SellerID:   in.SellerID,
		CreatedBy:  in.CreatedBy,
		Status:     StatusPending,
		Notes:      in.Notes,
	}

	items := make([]OrderItem, 0, len(in.Items))
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return detail, fmt.Errorf("%w: item quantities must be positive", httpx.ErrValidation)
		}
		p, err := s.catalog.Get(ctx, line.ProductID)
		if err != nil {
			return detail, err
		}
		_, _, lineTotal := salesshared.CalculateLineTotals(
			float64(line.Quantity), p.Price, line.DiscountPercent, p.TaxRate)
		order.Total += lineTotal
		items = append(items, OrderItem{
			ProductID: p.ID,
			Quantity:  line.Quantity,
			UnitPrice: p.Price,
			Discount:  line.DiscountPercent,
		})
	}

	if err := s.repo.Create(ctx, &order, items); err != nil {
		return detail, err
	}

	s.recordAudit(ctx, in.CreatedBy, "order.create", order.ID)
	return OrderDetail{Order: order, Items: items}, nil
}

// Get returns one order with its lines.
func (s *Service) Get(ctx context.Context, id int64) (OrderDetail, error) {
	return s.repo.Get(ctx, id)
}

// List returns orders matching the filters.
func (s *Service) List(ctx context.Context, f OrderFilters) ([]SalesOrder, int64, error) {
	return s.repo.List(ctx, f)
}

// Execute turns a pending order into an invoice. Only an admin or the
// assigned seller may execute. The invoice, the stock decrements and
// the pending→executed flip commit in one transaction; a concurrent
// cancel or execute makes the guarded flip fail and rolls it all back.
func (s *Service) Execute(ctx context.Context, orderID, actorID int64, actorRole string) (billing.InvoiceDetail, error) {
	detail, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return billing.InvoiceDetail{}, err
	}
	order := detail.Order

	if !rbac.IsAdmin(actorRole) && actorID != order.SellerID {
		return billing.InvoiceDetail{}, fmt.Errorf("%w: only the assigned seller may execute this order", httpx.ErrForbidden)
	}
	if order.Status != StatusPending {
		return billing.InvoiceDetail{}, fmt.Errorf("%w: order %d is %s", ErrInvalidStatus, orderID, order.Status)
	}

	input := billing.CommitSaleInput{
		Kind:         billing.KindNormal,
		CustomerID:   &order.CustomerID,
		SellerID:     order.SellerID,
		SalesOrderID: &order.ID,
	}
	for _, it := range detail.Items {
		input.Items = append(input.Items, billing.SaleItemInput{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			DiscountPercent: it.Discount,
		})
	}

	invoice, err := s.billing.CommitSale(ctx, input)
	if err != nil {
		return billing.InvoiceDetail{}, err
	}

	s.recordAudit(ctx, actorID, "order.execute", orderID)
	return invoice, nil
}

// Cancel voids a pending order. Admin only; executed and cancelled
// orders are terminal.
func (s *Service) Cancel(ctx context.Context, orderID, actorID int64, actorRole string) error {
	if !rbac.IsAdmin(actorRole) {
		return fmt.Errorf("%w: only admins cancel orders", httpx.ErrForbidden)
	}
	if err := s.repo.CancelPending(ctx, orderID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "order.cancel", orderID)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, orderID int64) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "sales_order",
		EntityID: strconv.FormatInt(orderID, 10),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("orders: audit record failed", "action", action, "error", err)
	}
}
