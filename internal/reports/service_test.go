package reports

import (
	"context"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	summary      SalesSummary
	summaryCalls int
	sellers      []SellerSales
	sellerCalls  int
	products     []ProductSales
	productCalls int
	lowStock     []LowStockProduct
}

func (m *mockRepo) SalesSummary(ctx context.Context, p Period) (SalesSummary, error) {
	m.summaryCalls++
	s := m.summary
	s.From, s.To = p.From, p.To
	s.NetRevenue = s.GrossSales - s.CreditNoteTotal
	return s, nil
}

func (m *mockRepo) SalesBySeller(ctx context.Context, p Period) ([]SellerSales, error) {
	m.sellerCalls++
	return m.sellers, nil
}

func (m *mockRepo) TopProducts(ctx context.Context, p Period, limit int) ([]ProductSales, error) {
	m.productCalls++
	if limit < len(m.products) {
		return m.products[:limit], nil
	}
	return m.products, nil
}

func (m *mockRepo) LowStock(ctx context.Context, threshold int64) ([]LowStockProduct, error) {
	var out []LowStockProduct
	for _, p := range m.lowStock {
		if p.Stock <= threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewService(repo, NewCache(client, time.Minute))
}

func testPeriod() Period {
	return Period{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSalesSummaryNetRevenue(t *testing.T) {
	repo := &mockRepo{summary: SalesSummary{InvoiceCount: 3, GrossSales: 10000, CreditNoteTotal: 1500, TaxCollected: 1900}}
	svc := newTestService(t, repo)

	s, err := svc.SalesSummary(context.Background(), testPeriod())
	require.NoError(t, err)
	require.InDelta(t, 8500.0, s.NetRevenue, 0.0001)
	require.EqualValues(t, 3, s.InvoiceCount)
}

func TestSalesSummaryCached(t *testing.T) {
	repo := &mockRepo{summary: SalesSummary{GrossSales: 10000}}
	svc := newTestService(t, repo)

	_, err := svc.SalesSummary(context.Background(), testPeriod())
	require.NoError(t, err)
	_, err = svc.SalesSummary(context.Background(), testPeriod())
	require.NoError(t, err)
	require.Equal(t, 1, repo.summaryCalls)
}

func TestInvalidateForcesRebuild(t *testing.T) {
	repo := &mockRepo{summary: SalesSummary{GrossSales: 10000}}
	svc := newTestService(t, repo)

	_, err := svc.SalesSummary(context.Background(), testPeriod())
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(context.Background()))

	_, err = svc.SalesSummary(context.Background(), testPeriod())
	require.NoError(t, err)
	require.Equal(t, 2, repo.summaryCalls)
}

func TestSalesBySellerAndCSV(t *testing.T) {
	repo := &mockRepo{sellers: []SellerSales{
		{SellerID: 1, SellerName: "Laura", InvoiceCount: 4, Total: 1234567.89},
		{SellerID: 2, SellerName: "Andres", InvoiceCount: 2, Total: 500},
	}}
	svc := newTestService(t, repo)

	rows, err := svc.SalesBySeller(context.Background(), testPeriod())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	payload, err := SellerSalesCSV(rows)
	require.NoError(t, err)
	out := string(payload)
	require.True(t, strings.HasPrefix(out, "seller_id,seller,invoices,total"))
	require.Contains(t, out, "Laura")
	// es-CO grouping: dot thousands, comma decimals.
	require.Contains(t, out, "1.234.567,89")
}

func TestTopProductsCachedPerLimit(t *testing.T) {
	repo := &mockRepo{products: []ProductSales{
		{ProductID: 1, ProductName: "A", Quantity: 9},
		{ProductID: 2, ProductName: "B", Quantity: 5},
		{ProductID: 3, ProductName: "C", Quantity: 1},
	}}
	svc := newTestService(t, repo)

	rows, err := svc.TopProducts(context.Background(), testPeriod(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// A different limit is a different cache entry, not a truncated or
	// inflated replay of the first one.
	rows, err = svc.TopProducts(context.Background(), testPeriod(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 2, repo.productCalls)

	// Same limit again comes from cache.
	_, err = svc.TopProducts(context.Background(), testPeriod(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, repo.productCalls)
}

func TestLowStockThresholdDefault(t *testing.T) {
	repo := &mockRepo{lowStock: []LowStockProduct{
		{ProductID: 1, Name: "A", Stock: 2},
		{ProductID: 2, Name: "B", Stock: 50},
	}}
	svc := newTestService(t, repo)

	rows, err := svc.LowStock(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.EqualValues(t, 1, rows[0].ProductID)
}

func TestWarmupPopulatesCache(t *testing.T) {
	repo := &mockRepo{summary: SalesSummary{GrossSales: 100}}
	svc := newTestService(t, repo)

	require.NoError(t, svc.Warmup(context.Background()))
	require.Equal(t, 1, repo.summaryCalls)
	require.Equal(t, 1, repo.sellerCalls)
	require.Equal(t, 1, repo.productCalls)

	// Cached now: warmup again hits nothing.
	require.NoError(t, svc.Warmup(context.Background()))
	require.Equal(t, 1, repo.summaryCalls)
}
