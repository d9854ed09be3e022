package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/orders"
	"github.com/go-chi/chi/v5"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, req checkout.PlaceOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error)
	SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
	SetOrderNotes(ctx context.Context, orderID string, notes string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter orders.Filter, page, pageSize int) (*orders.Page, error)
}

type OrdersHandler struct {
	orders   OrderService
	sessions CartSessions
	timeout  time.Duration
}

func NewOrdersHandler(svc OrderService, sessions CartSessions, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:   svc,
		sessions: sessions,
		timeout:  timeout,
	}
}

type OrderItemDTO struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price,omitempty"`
}

type PlaceOrderRequestDTO struct {
	// Items nil means "order the session cart"
	Items         []OrderItemDTO       `json:"items"`
	Customer      domain.CustomerInfo  `json:"customer"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	Notes         string               `json:"notes"`
}

type PlaceOrderResponseDTO struct {
	OrderNumber string             `json:"order_number"`
	Total       float64            `json:"total"`
	Status      domain.OrderStatus `json:"status"`
}

// POST /api/v1/orders
func (h *OrdersHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PlaceOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	e, ok := h.cartEngine(w, r)
	if !ok {
		return
	}

	lines := make([]checkout.LineRequest, 0, len(req.Items))
	if req.Items == nil && e != nil {
		for _, it := range e.Snapshot().Items {
			lines = append(lines, checkout.LineRequest{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
		}
	}
	for _, it := range req.Items {
		lines = append(lines, checkout.LineRequest{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.Price})
	}

	order, err := h.orders.PlaceOrder(ctx, checkout.PlaceOrderRequest{
		Lines:         lines,
		Customer:      req.Customer,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if e != nil {
		e.Clear()
	}
	respondJSON(w, http.StatusCreated, PlaceOrderResponseDTO{
		OrderNumber: order.OrderNumber,
		Total:       order.Total,
		Status:      order.Status,
	})
}

// cartEngine returns the session's engine, or nil when the request carries
// no session. A cart store failure is fatal for the request.
func (h *OrdersHandler) cartEngine(w http.ResponseWriter, r *http.Request) (*cart.Engine, bool) {
	sessionID := sessionFromContext(r.Context())
	if sessionID == "" || h.sessions == nil {
		return nil, true
	}
	e, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to load session cart")
		handleServiceError(w, r, err)
		return nil, false
	}
	return e, true
}

// GET /api/v1/orders/{order_number}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "order_number"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
