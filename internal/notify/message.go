// Package notify delivers order notifications to customers and the shop
// admin. Delivery ends at the message broker; mail transport lives elsewhere.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

type Kind string

const (
	KindCustomerConfirmation Kind = "order_confirmation"
	KindAdminAlert           Kind = "order_alert"
)

// Notifier matches checkout.Notifier.
type Notifier interface {
	NotifyCustomer(ctx context.Context, order *domain.Order) error
	NotifyAdmin(ctx context.Context, order *domain.Order) error
}

// Message is the payload published for each notification.
type Message struct {
	Kind          Kind                 `json:"kind"`
	OrderNumber   string               `json:"order_number"`
	Recipient     string               `json:"recipient"`
	Subject       string               `json:"subject"`
	Customer      domain.CustomerInfo  `json:"customer"`
	Lines         []domain.OrderLine   `json:"lines"`
	Total         float64              `json:"total"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	Notes         string               `json:"notes,omitempty"`
	PlacedAt      time.Time            `json:"placed_at"`
}

func CustomerSubject(orderNumber string) string {
	return fmt.Sprintf("Order Confirmation - #%s", orderNumber)
}

func AdminSubject(orderNumber string, total float64) string {
	return fmt.Sprintf("New Order #%s - Rs. %.2f", orderNumber, total)
}

// NewCustomerMessage addresses the confirmation to the customer's email.
func NewCustomerMessage(order *domain.Order) Message {
	m := newMessage(order)
	m.Kind = KindCustomerConfirmation
	m.Recipient = order.Customer.Email
	m.Subject = CustomerSubject(order.OrderNumber)
	return m
}

func NewAdminMessage(order *domain.Order, adminEmail string) Message {
	m := newMessage(order)
	m.Kind = KindAdminAlert
	m.Recipient = adminEmail
	m.Subject = AdminSubject(order.OrderNumber, order.Total)
	return m
}

func newMessage(order *domain.Order) Message {
	return Message{
		OrderNumber:   order.OrderNumber,
		Customer:      order.Customer,
		Lines:         order.Lines,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
		Notes:         order.Notes,
		PlacedAt:      order.CreatedAt,
	}
}
