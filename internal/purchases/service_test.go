package purchases

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

type memState struct {
	products  map[int64]bool
	stock     map[int64]int64
	purchases map[int64]Purchase
	items     map[int64][]PurchaseItem
	movements int
	nextID    int64
}

func (s *memState) clone() *memState {
	c := &memState{
		products:  make(map[int64]bool, len(s.products)),
		stock:     make(map[int64]int64, len(s.stock)),
		purchases: make(map[int64]Purchase, len(s.purchases)),
		items:     make(map[int64][]PurchaseItem, len(s.items)),
		movements: s.movements,
		nextID:    s.nextID,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.purchases {
		c.purchases[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]PurchaseItem(nil), v...)
	}
	return c
}

type memRepo struct {
	state *memState
}

func newMemRepo() *memRepo {
	return &memRepo{state: &memState{
		products:  make(map[int64]bool),
		stock:     make(map[int64]int64),
		purchases: make(map[int64]Purchase),
		items:     make(map[int64][]PurchaseItem),
		nextID:    1,
	}}
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	draft := r.state.clone()
	if err := fn(ctx, &memTx{state: draft}); err != nil {
		return err
	}
	r.state = draft
	return nil
}

func (r *memRepo) Get(ctx context.Context, id int64) (PurchaseDetail, error) {
	p, ok := r.state.purchases[id]
	if !ok {
		return PurchaseDetail{}, httpx.ErrNotFound
	}
	return PurchaseDetail{Purchase: p, Items: r.state.items[id]}, nil
}

func (r *memRepo) List(ctx context.Context, f PurchaseFilters) ([]Purchase, int64, error) {
	var out []Purchase
	for _, p := range r.state.purchases {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

type memTx struct {
	state *memState
}

func (t *memTx) ProductExists(ctx context.Context, productID int64) error {
	if !t.state.products[productID] {
		return httpx.ErrNotFound
	}
	return nil
}

func (t *memTx) InsertPurchase(ctx context.Context, p *Purchase) error {
	p.ID = t.state.nextID
	t.state.nextID++
	t.state.purchases[p.ID] = *p
	return nil
}

func (t *memTx) InsertItems(ctx context.Context, purchaseID int64, items []PurchaseItem) error {
	t.state.items[purchaseID] = append([]PurchaseItem(nil), items...)
	return nil
}

func (t *memTx) IncrementStock(ctx context.Context, productID, quantity int64) error {
	t.state.stock[productID] += quantity
	return nil
}

func (t *memTx) InsertMovement(ctx context.Context, productID, delta int64, refID int64) error {
	t.state.movements++
	return nil
}

func TestReceivePurchase(t *testing.T) {
	repo := newMemRepo()
	repo.state.products[1] = true
	repo.state.products[2] = true
	svc := NewService(repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	detail, err := svc.Receive(context.Background(), ReceivePurchaseInput{
		SupplierID: 5,
		BuyerID:    1,
		Items: []ReceiveItemInput{
			{ProductID: 1, Quantity: 10, UnitCost: 700},
			{ProductID: 2, Quantity: 4, UnitCost: 300},
		},
	})
	require.NoError(t, err)
	require.InDelta(t, 8200.0, detail.Purchase.Total, 0.0001)
	require.EqualValues(t, 10, repo.state.stock[1])
	require.EqualValues(t, 4, repo.state.stock[2])
	require.Equal(t, 2, repo.state.movements)
}

func TestReceivePurchaseUnknownProductRollsBack(t *testing.T) {
	repo := newMemRepo()
	repo.state.products[1] = true
	svc := NewService(repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Receive(context.Background(), ReceivePurchaseInput{
		SupplierID: 5,
		BuyerID:    1,
		Items: []ReceiveItemInput{
			{ProductID: 1, Quantity: 10, UnitCost: 700},
			{ProductID: 99, Quantity: 1, UnitCost: 100},
		},
	})
	require.ErrorIs(t, err, httpx.ErrNotFound)
	require.EqualValues(t, 0, repo.state.stock[1])
	require.Empty(t, repo.state.purchases)
}

func TestReceivePurchaseValidation(t *testing.T) {
	svc := NewService(newMemRepo(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Receive(context.Background(), ReceivePurchaseInput{BuyerID: 1, Items: []ReceiveItemInput{{ProductID: 1, Quantity: 1}}})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Receive(context.Background(), ReceivePurchaseInput{SupplierID: 5, BuyerID: 1})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Receive(context.Background(), ReceivePurchaseInput{
		SupplierID: 5, BuyerID: 1,
		Items: []ReceiveItemInput{{ProductID: 1, Quantity: 0, UnitCost: 10}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Receive(context.Background(), ReceivePurchaseInput{
		SupplierID: 5, BuyerID: 1,
		Items: []ReceiveItemInput{{ProductID: 1, Quantity: 1, UnitCost: -10}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
