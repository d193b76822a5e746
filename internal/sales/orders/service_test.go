package orders

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konta-pos/konta-pos/internal/billing"
	"github.com/konta-pos/konta-pos/internal/masterdata/products"
	"github.com/konta-pos/konta-pos/internal/platform/httpx"
	"github.com/konta-pos/konta-pos/internal/rbac"
)

type memRepo struct {
	orders map[int64]SalesOrder
	items  map[int64][]OrderItem
	nextID int64
}

func newMemRepo() *memRepo {
	return &memRepo{orders: make(map[int64]SalesOrder), items: make(map[int64][]OrderItem), nextID: 1}
}

func (r *memRepo) Create(ctx context.Context, order *SalesOrder, items []OrderItem) error {
	order.ID = r.nextID
	r.nextID++
	r.orders[order.ID] = *order
	r.items[order.ID] = append([]OrderItem(nil), items...)
	return nil
}

func (r *memRepo) Get(ctx context.Context, id int64) (OrderDetail, error) {
	o, ok := r.orders[id]
	if !ok {
		return OrderDetail{}, httpx.ErrNotFound
	}
	return OrderDetail{Order: o, Items: r.items[id]}, nil
}

func (r *memRepo) List(ctx context.Context, f OrderFilters) ([]SalesOrder, int64, error) {
	var out []SalesOrder
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (r *memRepo) CancelPending(ctx context.Context, id int64) error {
	o, ok := r.orders[id]
	if !ok || o.Status != StatusPending {
		return ErrInvalidStatus
	}
	o.Status = StatusCancelled
	r.orders[id] = o
	return nil
}

type fakeCatalog struct {
	byID map[int64]*products.Product
}

func (c *fakeCatalog) Get(ctx context.Context, id int64) (*products.Product, error) {
	p, ok := c.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return p, nil
}

type fakeCommitter struct {
	repo  *memRepo
	calls int
	fail  error
}

// CommitSale mimics the billing transaction: on success it also flips
// the referenced order, guarded on pending, like the real tx does.
func (f *fakeCommitter) CommitSale(ctx context.Context, in billing.CommitSaleInput) (billing.InvoiceDetail, error) {
	f.calls++
	if f.fail != nil {
		return billing.InvoiceDetail{}, f.fail
	}
	if in.SalesOrderID != nil {
		o, ok := f.repo.orders[*in.SalesOrderID]
		if !ok || o.Status != StatusPending {
			return billing.InvoiceDetail{}, billing.ErrInvalidStatus
		}
		o.Status = StatusExecuted
		invoiceID := int64(777)
		o.InvoiceID = &invoiceID
		f.repo.orders[*in.SalesOrderID] = o
	}
	return billing.InvoiceDetail{Invoice: billing.Invoice{ID: 777, Kind: in.Kind, Status: billing.StatusPaid}}, nil
}

func newTestService(repo *memRepo, catalog *fakeCatalog, committer *fakeCommitter) *Service {
	return NewService(repo, catalog, committer, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seedCatalog() *fakeCatalog {
	return &fakeCatalog{byID: map[int64]*products.Product{
		1: {ID: 1, Name: "Cafe", Price: 1000, TaxRate: 19, Stock: 10},
		2: {ID: 2, Name: "Panela", Price: 500, TaxRate: 0, Stock: 10},
	}}
}

func TestCreateOrderQuotesTotal(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, seedCatalog(), &fakeCommitter{repo: repo})

	detail, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerID: 9,
		SellerID:   7,
		CreatedBy:  1,
		Items: []OrderItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 3, DiscountPercent: 10},
		},
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, detail.Order.Status)
	// 2×1000×1.19 + 3×500×0.9
	require.InDelta(t, 3730.0, detail.Order.Total, 0.0001)
	require.Len(t, detail.Items, 2)
}

func TestCreateOrderValidation(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, seedCatalog(), &fakeCommitter{repo: repo})

	_, err := svc.Create(context.Background(), CreateOrderInput{SellerID: 7, Items: []OrderItemInput{{ProductID: 1, Quantity: 1}}})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), CreateOrderInput{CustomerID: 9, Items: []OrderItemInput{{ProductID: 1, Quantity: 1}}})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), CreateOrderInput{CustomerID: 9, SellerID: 7})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestExecutePermissions(t *testing.T) {
	repo := newMemRepo()
	committer := &fakeCommitter{repo: repo}
	svc := newTestService(repo, seedCatalog(), committer)

	detail, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerID: 9, SellerID: 7, CreatedBy: 1,
		Items: []OrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	// A different seller cannot execute.
	_, err = svc.Execute(context.Background(), detail.Order.ID, 8, rbac.RoleSeller)
	require.ErrorIs(t, err, httpx.ErrForbidden)
	require.Zero(t, committer.calls)

	// The assigned seller can.
	inv, err := svc.Execute(context.Background(), detail.Order.ID, 7, rbac.RoleSeller)
	require.NoError(t, err)
	require.Equal(t, billing.KindNormal, inv.Invoice.Kind)
	require.Equal(t, StatusExecuted, repo.orders[detail.Order.ID].Status)
}

func TestExecuteTerminalStatesRejected(t *testing.T) {
	repo := newMemRepo()
	committer := &fakeCommitter{repo: repo}
	svc := newTestService(repo, seedCatalog(), committer)

	for _, status := range []string{StatusExecuted, StatusCancelled} {
		repo.orders[50] = SalesOrder{ID: 50, CustomerID: 9, SellerID: 7, Status: status}
		_, err := svc.Execute(context.Background(), 50, 7, rbac.RoleAdmin)
		require.ErrorIs(t, err, ErrInvalidStatus, "status %s", status)
	}
	// No invoice was ever attempted.
	require.Zero(t, committer.calls)
}

func TestExecuteConcurrentFlipFailsAtomically(t *testing.T) {
	repo := newMemRepo()
	committer := &fakeCommitter{repo: repo}
	svc := newTestService(repo, seedCatalog(), committer)

	detail, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerID: 9, SellerID: 7, CreatedBy: 1,
		Items: []OrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	// Simulate a cancel racing in between the read and the commit.
	order := repo.orders[detail.Order.ID]
	order.Status = StatusCancelled
	repo.orders[detail.Order.ID] = order

	// The read in Execute sees cancelled and refuses before committing.
	_, err = svc.Execute(context.Background(), detail.Order.ID, 7, rbac.RoleSeller)
	require.ErrorIs(t, err, ErrInvalidStatus)
	require.Zero(t, committer.calls)
}

func TestCancelAdminOnly(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, seedCatalog(), &fakeCommitter{repo: repo})

	detail, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerID: 9, SellerID: 7, CreatedBy: 1,
		Items: []OrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), detail.Order.ID, 7, rbac.RoleSeller)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	require.NoError(t, svc.Cancel(context.Background(), detail.Order.ID, 1, rbac.RoleAdmin))
	require.Equal(t, StatusCancelled, repo.orders[detail.Order.ID].Status)

	// Terminal: cancelling again fails.
	err = svc.Cancel(context.Background(), detail.Order.ID, 1, rbac.RoleAdmin)
	require.ErrorIs(t, err, ErrInvalidStatus)
}
