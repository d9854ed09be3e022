package checkout

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/metrics"
)

// dispatchNotifications sends the customer confirmation and the admin alert
// on a background goroutine. Failures are logged and counted.
func (s *Service) dispatchNotifications(order *domain.Order) {
	if s.notifier == nil {
		return
	}
	snapshot := *order
	snapshot.Lines = append([]domain.OrderLine(nil), order.Lines...)

	s.dispatches.Add(1)
	go func() {
		defer s.dispatches.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.NotifyTimeout)
		defer cancel()

		send := []struct {
			kind string
			fn   func(context.Context, *domain.Order) error
		}{
			{"customer", s.notifier.NotifyCustomer},
			{"admin", s.notifier.NotifyAdmin},
		}
		for _, n := range send {
			if err := n.fn(ctx, &snapshot); err != nil {
				metrics.NotificationFailures.WithLabelValues(n.kind).Inc()
				logging.Warn().Err(err).
					Str("kind", n.kind).
					Str("order_number", snapshot.OrderNumber).
					Msg("order notification failed")
			}
		}
	}()
}
