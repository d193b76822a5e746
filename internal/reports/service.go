package reports

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultLowStockThreshold = 5

// Service serves report aggregates through the versioned cache. A
// singleflight group collapses concurrent rebuilds of the same key so
// a cold dashboard does not stampede the database.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

// NewService wires the reports service.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func (s *Service) fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	ch := s.group.DoChan(key, func() (any, error) {
		var raw json.RawMessage
		if err := s.cache.FetchJSON(ctx, key, &raw, loader); err != nil {
			return nil, err
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.(json.RawMessage), dest)
	}
}

// SalesSummary returns the revenue headline for a period.
func (s *Service) SalesSummary(ctx context.Context, p Period) (SalesSummary, error) {
	key, err := s.cache.Key(ctx, "reports", "summary", p.From.Format("2006-01-02"), p.To.Format("2006-01-02"))
	if err != nil {
		return SalesSummary{}, err
	}
	var out SalesSummary
	err = s.fetch(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.repo.SalesSummary(ctx, p)
	})
	return out, err
}

// SalesBySeller returns per-seller totals for a period.
func (s *Service) SalesBySeller(ctx context.Context, p Period) ([]SellerSales, error) {
	key, err := s.cache.Key(ctx, "reports", "sellers", p.From.Format("2006-01-02"), p.To.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	var out []SellerSales
	err = s.fetch(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.repo.SalesBySeller(ctx, p)
	})
	return out, err
}

// TopProducts returns the best sellers for a period.
func (s *Service) TopProducts(ctx context.Context, p Period, limit int) ([]ProductSales, error) {
	key, err := s.cache.Key(ctx, "reports", "top", p.From.Format("2006-01-02"), p.To.Format("2006-01-02"), strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}
	var out []ProductSales
	err = s.fetch(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.repo.TopProducts(ctx, p, limit)
	})
	return out, err
}

// LowStock lists products at or under the threshold. Not cached: it
// must reflect the latest commit.
func (s *Service) LowStock(ctx context.Context, threshold int64) ([]LowStockProduct, error) {
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	return s.repo.LowStock(ctx, threshold)
}

// Invalidate drops every cached report.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}

// Warmup rebuilds the current month's reports, typically from a cron
// job right after cache invalidation windows.
func (s *Service) Warmup(ctx context.Context) error {
	now := time.Now()
	p := Period{
		From: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
		To:   now.AddDate(0, 0, 1),
	}
	if _, err := s.SalesSummary(ctx, p); err != nil {
		return err
	}
	if _, err := s.SalesBySeller(ctx, p); err != nil {
		return err
	}
	_, err := s.TopProducts(ctx, p, 10)
	return err
}
