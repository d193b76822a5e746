package inventory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

type memRepo struct {
	stock     map[int64]int64
	movements []Movement
}

func (r *memRepo) StockCard(ctx context.Context, productID int64, limit int) (StockCard, error) {
	stock, ok := r.stock[productID]
	if !ok {
		return StockCard{}, httpx.ErrNotFound
	}
	card := StockCard{ProductID: productID, Stock: stock}
	for _, m := range r.movements {
		if m.ProductID == productID {
			card.Movements = append(card.Movements, m)
		}
	}
	return card, nil
}

func (r *memRepo) Adjust(ctx context.Context, in AdjustmentInput) error {
	stock, ok := r.stock[in.ProductID]
	if !ok {
		return httpx.ErrNotFound
	}
	if in.Delta < 0 && stock < -in.Delta {
		return fmt.Errorf("%w: product %d", ErrInsufficientStock, in.ProductID)
	}
	r.stock[in.ProductID] = stock + in.Delta
	r.movements = append(r.movements, Movement{ProductID: in.ProductID, Delta: in.Delta, Reason: ReasonAdjust, Note: in.Note})
	return nil
}

func newTestService(repo *memRepo) *Service {
	return NewService(repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPostAdjustment(t *testing.T) {
	repo := &memRepo{stock: map[int64]int64{1: 5}}
	svc := newTestService(repo)

	require.NoError(t, svc.PostAdjustment(context.Background(), AdjustmentInput{
		ProductID: 1, Delta: 3, Note: "recount", ActorID: 1,
	}))
	require.EqualValues(t, 8, repo.stock[1])

	require.NoError(t, svc.PostAdjustment(context.Background(), AdjustmentInput{
		ProductID: 1, Delta: -8, Note: "shrinkage", ActorID: 1,
	}))
	require.EqualValues(t, 0, repo.stock[1])
}

func TestPostAdjustmentGuardsNegativeStock(t *testing.T) {
	repo := &memRepo{stock: map[int64]int64{1: 2}}
	svc := newTestService(repo)

	err := svc.PostAdjustment(context.Background(), AdjustmentInput{
		ProductID: 1, Delta: -3, Note: "oops", ActorID: 1,
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.EqualValues(t, 2, repo.stock[1])
}

func TestPostAdjustmentValidation(t *testing.T) {
	repo := &memRepo{stock: map[int64]int64{1: 2}}
	svc := newTestService(repo)

	err := svc.PostAdjustment(context.Background(), AdjustmentInput{ProductID: 1, Delta: 0, Note: "x"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	err = svc.PostAdjustment(context.Background(), AdjustmentInput{ProductID: 1, Delta: 1, Note: "   "})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestStockCard(t *testing.T) {
	repo := &memRepo{stock: map[int64]int64{1: 5}}
	svc := newTestService(repo)

	require.NoError(t, svc.PostAdjustment(context.Background(), AdjustmentInput{ProductID: 1, Delta: 2, Note: "recount"}))

	card, err := svc.StockCard(context.Background(), 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 7, card.Stock)
	require.Len(t, card.Movements, 1)
	require.Equal(t, ReasonAdjust, card.Movements[0].Reason)

	_, err = svc.StockCard(context.Background(), 99, 10)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
