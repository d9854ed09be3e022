package http

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/orders"
)

var errInfra = errors.New("dial tcp 10.0.0.7:27017: connection refused")

type SessionsMock struct {
	err error
}

func (s SessionsMock) Get(context.Context, string) (*cart.Engine, error) {
	return nil, s.err
}

// OrderServiceMock returns err from every call.
type OrderServiceMock struct {
	err   error
	order *domain.Order
	last  checkout.PlaceOrderRequest
}

func (m *OrderServiceMock) PlaceOrder(_ context.Context, req checkout.PlaceOrderRequest) (*domain.Order, error) {
	m.last = req
	return m.order, m.err
}

func (m *OrderServiceMock) GetOrder(context.Context, string) (*domain.Order, error) {
	return m.order, m.err
}

func (m *OrderServiceMock) SetOrderStatus(context.Context, string, domain.OrderStatus) (*domain.Order, error) {
	return m.order, m.err
}

func (m *OrderServiceMock) SetOrderNotes(context.Context, string, string) (*domain.Order, error) {
	return m.order, m.err
}

func (m *OrderServiceMock) ListOrders(context.Context, orders.Filter, int, int) (*orders.Page, error) {
	return nil, m.err
}
