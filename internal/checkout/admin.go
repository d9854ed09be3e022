package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/orders"
)

// GetOrder looks an order up by its public order number.
func (s *Service) GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	o, err := s.orders.GetOrderByNumber(ctx, strings.TrimSpace(orderNumber))
	if err != nil {
		return nil, mapOrderErr(err)
	}
	return o, nil
}

// SetOrderStatus overwrites the status with any listed value. No transition
// graph is enforced.
func (s *Service) SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.orders.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return nil, mapOrderErr(err)
	}
	logging.Ctx(ctx).Info().Str("order_id", orderID).Str("status", string(status)).Msg("order status changed")

	o, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, mapOrderErr(err)
	}
	return o, nil
}

func (s *Service) SetOrderNotes(ctx context.Context, orderID string, notes string) (*domain.Order, error) {
	notes = strings.TrimSpace(notes)
	if len(notes) > maxNotesLength {
		return nil, &ValidationError{Reason: "notes too long", Fields: []string{"notes"}}
	}
	if err := s.orders.UpdateOrderNotes(ctx, orderID, notes); err != nil {
		return nil, mapOrderErr(err)
	}

	o, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, mapOrderErr(err)
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, filter orders.Filter, page, pageSize int) (*orders.Page, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
	}
	p, err := s.orders.ListOrders(ctx, filter, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return p, nil
}

func mapOrderErr(err error) error {
	if errors.Is(err, orders.ErrOrderNotFound) {
		return ErrOrderNotFound
	}
	return fmt.Errorf("order store: %w", err)
}
