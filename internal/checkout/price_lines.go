package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	"golang.org/x/sync/errgroup"
)

// priceLines resolves every line against the catalog and returns the order
// lines with catalog names and prices plus their total. Lookups run in
// parallel but failures are reported for the first bad line in input order.
func (s *Service) priceLines(ctx context.Context, reqLines []LineRequest) ([]domain.OrderLine, float64, error) {
	products := make([]*domain.Product, len(reqLines))
	errs := make([]error, len(reqLines))

	var g errgroup.Group
	g.SetLimit(s.cfg.ReadConcurrency)
	for i, l := range reqLines {
		g.Go(func() error {
			products[i], errs[i] = s.catalog.GetProduct(ctx, l.ProductID)
			return nil
		})
	}
	_ = g.Wait()

	log := logging.Ctx(ctx)
	lines := make([]domain.OrderLine, len(reqLines))
	var total float64
	for i, l := range reqLines {
		if err := errs[i]; err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil, 0, &RejectionError{ProductID: l.ProductID, Requested: l.Quantity, Reason: ErrProductNotFound}
			}
			return nil, 0, fmt.Errorf("get product %s: %w", l.ProductID, err)
		}

		p := products[i]
		if !p.Available(l.Quantity) {
			return nil, 0, &RejectionError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   l.Quantity,
				Available:   max(p.Inventory, 0),
				Reason:      ErrOutOfStock,
			}
		}

		if l.UnitPrice != 0 && math.Abs(l.UnitPrice-p.Price) > 0.005 {
			log.Debug().
				Str("product_id", p.ID).
				Float64("client_price", l.UnitPrice).
				Float64("catalog_price", p.Price).
				Msg("client price differs from catalog")
		}

		lines[i] = domain.OrderLine{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
		}
		total += lines[i].LineTotal()
	}
	return lines, total, nil
}
