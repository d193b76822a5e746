package cart

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddOutOfStock(t *testing.T) {
	c := New()
	_, err := c.Add(Product{ID: 1, Name: "Widget", Price: 1000, Stock: 0})
	require.ErrorIs(t, err, ErrOutOfStock)
	require.True(t, c.Empty())
}

func TestAddIncrementsExistingLine(t *testing.T) {
	c := New()
	p := Product{ID: 1, Name: "Widget", Price: 1000, Stock: 3}

	for i := 0; i < 3; i++ {
		warn, err := c.Add(p)
		require.NoError(t, err)
		require.Empty(t, warn)
	}

	warn, err := c.Add(p)
	require.NoError(t, err)
	require.NotEmpty(t, warn)

	lines := c.Lines()
	require.Len(t, lines, 1)
	require.EqualValues(t, 3, lines[0].Quantity)
}

func TestUpdateQuantity(t *testing.T) {
	c := New()
	_, err := c.Add(Product{ID: 1, Name: "Widget", Price: 1000, Stock: 5})
	require.NoError(t, err)

	warn, err := c.UpdateQuantity(1, 4)
	require.NoError(t, err)
	require.Empty(t, warn)
	require.EqualValues(t, 4, c.Lines()[0].Quantity)

	warn, err = c.UpdateQuantity(1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, warn)
	require.EqualValues(t, 5, c.Lines()[0].Quantity)

	_, err = c.UpdateQuantity(1, 0)
	require.NoError(t, err)
	require.True(t, c.Empty())

	_, err = c.UpdateQuantity(99, 2)
	require.ErrorIs(t, err, ErrNotInCart)
}

func TestTotalAppliesLineDiscounts(t *testing.T) {
	c := New()
	_, err := c.Add(Product{ID: 1, Name: "A", Price: 1000, Stock: 10})
	require.NoError(t, err)
	_, err = c.UpdateQuantity(1, 2)
	require.NoError(t, err)

	_, err = c.Add(Product{ID: 2, Name: "B", Price: 500, Stock: 10})
	require.NoError(t, err)
	_, err = c.UpdateQuantity(2, 3)
	require.NoError(t, err)
	require.NoError(t, c.UpdateDiscount(2, 10))

	// 1000*2 + 500*3*0.9 = 2000 + 1350
	require.InDelta(t, 3350.0, c.Total(), 0.0001)
}

func TestUpdateDiscountClamps(t *testing.T) {
	c := New()
	_, err := c.Add(Product{ID: 1, Name: "A", Price: 1000, Stock: 10})
	require.NoError(t, err)

	require.NoError(t, c.UpdateDiscount(1, 150))
	require.InDelta(t, 100.0, c.Lines()[0].Discount, 0.0001)

	require.NoError(t, c.UpdateDiscount(1, -5))
	require.InDelta(t, 0.0, c.Lines()[0].Discount, 0.0001)

	require.ErrorIs(t, c.UpdateDiscount(99, 10), ErrNotInCart)
}

func TestClear(t *testing.T) {
	c := New()
	_, err := c.Add(Product{ID: 1, Name: "A", Price: 1000, Stock: 10})
	require.NoError(t, err)
	c.Clear()
	require.True(t, c.Empty())
	require.InDelta(t, 0.0, c.Total(), 0.0001)
}

func TestStoreKeysBySession(t *testing.T) {
	s := NewStore()
	a := s.Get("sess-a")
	b := s.Get("sess-b")
	require.NotSame(t, a, b)
	require.Same(t, a, s.Get("sess-a"))

	s.Drop("sess-a")
	require.NotSame(t, a, s.Get("sess-a"))
}
