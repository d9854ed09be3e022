package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/metrics"
)

// reserveInventory decrements stock line by line in input order. If any
// decrement fails, the ones already applied are restored before returning.
func (s *Service) reserveInventory(ctx context.Context, lines []domain.OrderLine) error {
	for i, l := range lines {
		err := s.catalog.DecrementInventory(ctx, l.ProductID, l.Quantity)
		if err == nil {
			continue
		}

		s.releaseInventory(ctx, lines[:i])

		switch {
		case errors.Is(err, catalog.ErrInsufficientStock):
			return &RejectionError{ProductID: l.ProductID, ProductName: l.Name, Requested: l.Quantity, Reason: ErrOutOfStock}
		case errors.Is(err, catalog.ErrProductNotFound):
			return &RejectionError{ProductID: l.ProductID, ProductName: l.Name, Requested: l.Quantity, Reason: ErrProductNotFound}
		default:
			return fmt.Errorf("decrement inventory for %s: %w", l.ProductID, err)
		}
	}
	return nil
}

// releaseInventory hands back stock taken for lines. It runs detached from
// the request so an abandoned request cannot strand inventory.
func (s *Service) releaseInventory(ctx context.Context, lines []domain.OrderLine) {
	if len(lines) == 0 {
		return
	}
	log := logging.Ctx(ctx)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CompensationTimeout)
	defer cancel()

	for i := len(lines) - 1; i >= 0; i-- {
		l := lines[i]
		if err := s.catalog.RestoreInventory(ctx, l.ProductID, l.Quantity); err != nil {
			metrics.InventoryCompensations.WithLabelValues("failed").Inc()
			log.Error().Err(err).
				Str("product_id", l.ProductID).
				Int("quantity", l.Quantity).
				Msg("failed to restore inventory")
			continue
		}
		metrics.InventoryCompensations.WithLabelValues("ok").Inc()
	}
}
