package notify

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
)

// LogNotifier writes notifications to the log instead of a broker. Used in
// development and when no broker is configured.
type LogNotifier struct {
	adminEmail string
}

func NewLogNotifier(adminEmail string) *LogNotifier {
	return &LogNotifier{adminEmail: adminEmail}
}

func (n *LogNotifier) NotifyCustomer(ctx context.Context, order *domain.Order) error {
	n.write(ctx, NewCustomerMessage(order))
	return nil
}

func (n *LogNotifier) NotifyAdmin(ctx context.Context, order *domain.Order) error {
	n.write(ctx, NewAdminMessage(order, n.adminEmail))
	return nil
}

func (n *LogNotifier) write(ctx context.Context, m Message) {
	logging.Ctx(ctx).Info().
		Str("kind", string(m.Kind)).
		Str("order_number", m.OrderNumber).
		Str("recipient", m.Recipient).
		Str("subject", m.Subject).
		Int("lines", len(m.Lines)).
		Float64("total", m.Total).
		Msg("notification")
}
