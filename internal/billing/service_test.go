package billing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
	"github.com/konta-pos/konta-pos/internal/shared"
)

type memProduct struct {
	SaleProduct
	Stock int64
}

type memMovement struct {
	ProductID int64
	Delta     int64
	Reason    string
	RefID     int64
}

type memState struct {
	products  map[int64]memProduct
	invoices  map[int64]Invoice
	items     map[int64][]InvoiceItem
	movements []memMovement
	orders    map[int64]string
	nextID    int64
}

func (s *memState) clone() *memState {
	c := &memState{
		products:  make(map[int64]memProduct, len(s.products)),
		invoices:  make(map[int64]Invoice, len(s.invoices)),
		items:     make(map[int64][]InvoiceItem, len(s.items)),
		movements: append([]memMovement(nil), s.movements...),
		orders:    make(map[int64]string, len(s.orders)),
		nextID:    s.nextID,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.invoices {
		c.invoices[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]InvoiceItem(nil), v...)
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	return c
}

// memRepo applies every transaction to a cloned state and swaps it in
// only on success, so a returned error discards all writes.
type memRepo struct {
	mu    sync.Mutex
	state *memState

	failDecrementOnCall int
	decrementCalls      int
}

func newMemRepo() *memRepo {
	return &memRepo{state: &memState{
		products: make(map[int64]memProduct),
		invoices: make(map[int64]Invoice),
		items:    make(map[int64][]InvoiceItem),
		orders:   make(map[int64]string),
		nextID:   1,
	}}
}

func (r *memRepo) addProduct(id int64, name string, price, taxRate float64, stock int64) {
	r.state.products[id] = memProduct{SaleProduct: SaleProduct{ID: id, Name: name, Price: price, TaxRate: taxRate}, Stock: stock}
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	draft := r.state.clone()
	if err := fn(ctx, &memTx{repo: r, state: draft}); err != nil {
		return err
	}
	r.state = draft
	return nil
}

func (r *memRepo) GetInvoice(ctx context.Context, id int64) (InvoiceDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.state.invoices[id]
	if !ok {
		return InvoiceDetail{}, httpx.ErrNotFound
	}
	return InvoiceDetail{Invoice: inv, Items: r.state.items[id]}, nil
}

func (r *memRepo) ListInvoices(ctx context.Context, f InvoiceFilters) ([]Invoice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Invoice
	for _, inv := range r.state.invoices {
		out = append(out, inv)
	}
	return out, int64(len(out)), nil
}

func (r *memRepo) UpdateStatus(ctx context.Context, id int64, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.state.invoices[id]
	if !ok || inv.Status != from {
		return ErrInvalidStatus
	}
	inv.Status = to
	r.state.invoices[id] = inv
	return nil
}

func (r *memRepo) MarkReported(ctx context.Context, id int64, cufe string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.state.invoices[id]
	if !ok || inv.Status != StatusPaid {
		return ErrInvalidStatus
	}
	inv.Status = StatusReportedDIAN
	inv.CUFE = cufe
	r.state.invoices[id] = inv
	return nil
}

func (r *memRepo) CancelInvoice(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.state.invoices[id]
	if !ok || (inv.Status != StatusDraft && inv.Status != StatusPaid) {
		return ErrInvalidStatus
	}
	inv.Status = StatusCancelled
	r.state.invoices[id] = inv
	return nil
}

func (r *memRepo) stock(id int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.products[id].Stock
}

type memTx struct {
	repo  *memRepo
	state *memState
}

func (t *memTx) GetProductForSale(ctx context.Context, productID int64) (SaleProduct, error) {
	p, ok := t.state.products[productID]
	if !ok {
		return SaleProduct{}, fmt.Errorf("%w: product %d", httpx.ErrNotFound, productID)
	}
	return p.SaleProduct, nil
}

func (t *memTx) DecrementStock(ctx context.Context, productID, quantity int64) error {
	t.repo.decrementCalls++
	if t.repo.failDecrementOnCall > 0 && t.repo.decrementCalls == t.repo.failDecrementOnCall {
		return errors.New("injected decrement failure")
	}
	p, ok := t.state.products[productID]
	if !ok || p.Stock < quantity {
		return fmt.Errorf("%w: product %d", ErrInsufficientStock, productID)
	}
	p.Stock -= quantity
	t.state.products[productID] = p
	return nil
}

func (t *memTx) InsertInvoice(ctx context.Context, inv *Invoice) error {
	inv.ID = t.state.nextID
	inv.Number = fmt.Sprintf("INV-%06d", inv.ID)
	t.state.nextID++
	t.state.invoices[inv.ID] = *inv
	return nil
}

func (t *memTx) InsertItems(ctx context.Context, invoiceID int64, items []InvoiceItem) error {
	for i := range items {
		items[i].InvoiceID = invoiceID
	}
	t.state.items[invoiceID] = append([]InvoiceItem(nil), items...)
	return nil
}

func (t *memTx) InsertMovement(ctx context.Context, productID, delta int64, reason string, refID int64) error {
	t.state.movements = append(t.state.movements, memMovement{ProductID: productID, Delta: delta, Reason: reason, RefID: refID})
	return nil
}

func (t *memTx) MarkOrderExecuted(ctx context.Context, orderID, invoiceID int64) error {
	if t.state.orders[orderID] != "pending" {
		return fmt.Errorf("%w: sales order %d is not pending", ErrInvalidStatus, orderID)
	}
	t.state.orders[orderID] = "executed"
	return nil
}

type memIdem struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemIdem() *memIdem { return &memIdem{keys: make(map[string]bool)} }

func (m *memIdem) CheckAndInsert(ctx context.Context, key, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memIdem) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func newTestService(repo *memRepo) *Service {
	return NewService(repo, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCommitSaleHappyPath(t *testing.T) {
	repo := newMemRepo()
	repo.addProduct(1, "Cafe 500g", 1000, 19, 10)
	repo.addProduct(2, "Panela", 500, 0, 10)
	svc := newTestService(repo)

	detail, err := svc.CommitSale(context.Background(), CommitSaleInput{
		Kind:     KindPOS,
		SellerID: 7,
		Items: []SaleItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 3, DiscountPercent: 10},
		},
	})
	require.NoError(t, err)

	inv := detail.Invoice
	require.Equal(t, StatusPaid, inv.Status)
	require.InDelta(t, 3500.0, inv.Subtotal, 0.0001)
	require.InDelta(t, 150.0, inv.Discount, 0.0001)
	require.InDelta(t, 380.0, inv.Tax, 0.0001)
	// total = subtotal - discount + tax
	require.InDelta(t, inv.Subtotal-inv.Discount+inv.Tax, inv.Total, 0.0001)
	require.InDelta(t, 3730.0, inv.Total, 0.0001)

	require.EqualValues(t, 8, repo.stock(1))
	require.EqualValues(t, 7, repo.stock(2))
	require.Len(t, repo.state.movements, 2)
	require.EqualValues(t, -2, repo.state.movements[0].Delta)
	require.Equal(t, "SALE", repo.state.movements[0].Reason)
}

func TestCommitSaleInsufficientStockRollsBack(t *testing.T) {
	repo := newMemRepo()
	repo.addProduct(1, "A", 1000, 19, 10)
	repo.addProduct(2, "B", 500, 0, 1)
	svc := newTestService(repo)

	_, err := svc.CommitSale(context.Background(), CommitSaleInput{
		Kind:     KindPOS,
		SellerID: 7,
		Items: []SaleItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 5},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.ErrorIs(t, err, httpx.ErrConflict)

	// Nothing persisted: first line's decrement rolled back too.
	require.EqualValues(t, 10, repo.stock(1))
	require.EqualValues(t, 1, repo.stock(2))
	require.Empty(t, repo.state.invoices)
	require.Empty(t, repo.state.movements)
}

func TestCommitSaleFaultInjectionRollsBack(t *testing.T) {
	repo := newMemRepo()
	repo.addProduct(1, "A", 1000, 19, 10)
	repo.addProduct(2, "B", 500, 0, 10)
	repo.failDecrementOnCall = 2
	svc := newTestService(repo)

	_, err := svc.CommitSale(context.Background(), CommitSaleInput{
		Kind:     KindPOS,
		SellerID: 7,
		Items: []SaleItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})
	require.Error(t, err)
	require.EqualValues(t, 10, repo.stock(1))
	require.Empty(t, repo.state.invoices)
}

func TestCommitSaleLastUnitRace(t *testing.T) {
	repo := newMemRepo()
	repo.addProduct(1, "Ultimo", 1000, 0, 1)
	svc := newTestService(repo)

	input := CommitSaleInput{
		Kind:     KindPOS,
		SellerID: 7,
		Items:    []SaleItemInput{{ProductID: 1, Quantity: 1}},
	}

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CommitSale(context.Background(), input)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflict int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientStock):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, conflict)
	require.EqualValues(t, 0, repo.stock(1))
	require.Len(t, repo.state.invoices, 1)
}

func TestCommitSaleExecutesSalesOrderAtomically(t *testing.T) {
	repo := newMemRepo()
	repo.addProduct(1, "A", 1000, 0, 5)
	repo.state.orders[42] = "pending"
	svc := newTestService(repo)

	orderID := int64(42)
	detail, err := svc.CommitSale(context.Background(), CommitSaleInput{
		Kind:         KindNormal,
		CustomerID:   ptr(int64(9)),
		SellerID:     7,
		SalesOrderID: &orderID,
		Items:        []SaleItemInput{{ProductID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, "executed", repo.state.orders[42])
	require.NotZero(t, detail.Invoice.ID)
}

func TestCommitSaleNonPendingOrderRollsBackEverything(t *testing.T) {
	repo := newMemRepo()
	repo.addProduct(1, "A", 1000, 0, 5)
	repo.state.orders[42] = "cancelled"
	svc := newTestService(repo)

	orderID := int64(42)
	_, err := svc.CommitSale(context.Background(), CommitSaleInput{
		Kind:         KindNormal,
		CustomerID:   ptr(int64(9)),
		SellerID:     7,
		SalesOrderID: &orderID,
		Items:        []SaleItemInput{{ProductID: 1, Quantity: 2}},
	})
	require.ErrorIs(t, err, ErrInvalidStatus)
	require.EqualValues(t, 5, repo.stock(1))
	require.Empty(t, repo.state.invoices)
	require.Equal(t, "cancelled", repo.state.orders[42])
}

func TestCommitSaleValidation(t *testing.T) {
	svc := newTestService(newMemRepo())

	_, err := svc.CommitSale(context.Background(), CommitSaleInput{Kind: KindPOS, SellerID: 1})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CommitSale(context.Background(), CommitSaleInput{
		Kind: KindNormal, SellerID: 1,
		Items: []SaleItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CommitSale(context.Background(), CommitSaleInput{
		Kind: "FANCY", SellerID: 1,
		Items: []SaleItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CommitSale(context.Background(), CommitSaleInput{
		Kind: KindPOS, SellerID: 1,
		Items: []SaleItemInput{{ProductID: 1, Quantity: 0}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCommitSaleIdempotency(t *testing.T) {
	repo := newMemRepo()
	repo.addProduct(1, "A", 1000, 0, 10)
	idem := newMemIdem()
	svc := NewService(repo, idem, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	input := CommitSaleInput{
		Kind:           KindPOS,
		SellerID:       7,
		IdempotencyKey: "pos-1-tx-99",
		Items:          []SaleItemInput{{ProductID: 1, Quantity: 1}},
	}

	_, err := svc.CommitSale(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.CommitSale(context.Background(), input)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
	require.Len(t, repo.state.invoices, 1)
	require.EqualValues(t, 9, repo.stock(1))
}

func TestCancelInvoice(t *testing.T) {
	repo := newMemRepo()
	repo.addProduct(1, "A", 1000, 0, 10)
	svc := newTestService(repo)

	detail, err := svc.CommitSale(context.Background(), CommitSaleInput{
		Kind: KindPOS, SellerID: 7,
		Items: []SaleItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), detail.Invoice.ID, 1))
	require.ErrorIs(t, svc.Cancel(context.Background(), detail.Invoice.ID, 1), ErrInvalidStatus)
}

func ptr[T any](v T) *T { return &v }
