package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
)

type WriterMock struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *WriterMock) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *WriterMock) Close() error {
	w.closed = true
	return nil
}

type NotifierMock struct {
	calls int
	err   error
}

func (n *NotifierMock) NotifyCustomer(context.Context, *domain.Order) error {
	n.calls++
	return n.err
}

func (n *NotifierMock) NotifyAdmin(context.Context, *domain.Order) error {
	n.calls++
	return n.err
}

var errBroker = errors.New("broker unavailable")

func testOrder() *domain.Order {
	return &domain.Order{
		ID:          "0b9d3c1e-4c1a-4d8e-9a55-6c1f0d2b7a10",
		OrderNumber: "BA17604000001230001ABCD",
		Customer: domain.CustomerInfo{
			Name:    "Ayesha Khan",
			Email:   "ayesha@example.com",
			Phone:   "03001234567",
			Address: "12 Mall Road",
			City:    "Lahore",
		},
		Lines: []domain.OrderLine{
			{ProductID: "suit", Name: "Lawn Suit", Quantity: 2, UnitPrice: 4500},
		},
		Total:         9000,
		PaymentMethod: domain.PaymentCashOnDelivery,
		Status:        domain.OrderStatusPending,
		CreatedAt:     time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC),
	}
}
