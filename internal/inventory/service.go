package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
	"github.com/konta-pos/konta-pos/internal/shared"
)

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service exposes ledger reads and manual adjustments.
type Service struct {
	repo   Repository
	audit  AuditRecorder
	logger *slog.Logger
}

// NewService wires the inventory service.
func NewService(repo Repository, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// StockCard returns the product's current stock and recent movements.
func (s *Service) StockCard(ctx context.Context, productID int64, limit int) (StockCard, error) {
	return s.repo.StockCard(ctx, productID, limit)
}

// PostAdjustment applies a manual correction. Negative deltas are
// guarded against driving stock below zero.
func (s *Service) PostAdjustment(ctx context.Context, in AdjustmentInput) error {
	if in.Delta == 0 {
		return fmt.Errorf("%w: delta cannot be zero", httpx.ErrValidation)
	}
	if strings.TrimSpace(in.Note) == "" {
		return fmt.Errorf("%w: adjustment note is required", httpx.ErrValidation)
	}

	if err := s.repo.Adjust(ctx, in); err != nil {
		return err
	}

	if s.audit != nil {
		entry := shared.AuditLog{
			ActorID:  in.ActorID,
			Action:   "inventory.adjust",
			Entity:   "product",
			EntityID: strconv.FormatInt(in.ProductID, 10),
			Meta:     map[string]any{"delta": in.Delta, "note": in.Note},
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Warn("inventory: audit record failed", "error", err)
		}
	}
	return nil
}
