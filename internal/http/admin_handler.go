package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/orders"
	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	orders  OrderService
	timeout time.Duration
}

func NewAdminHandler(svc OrderService, timeout time.Duration) *AdminHandler {
	return &AdminHandler{orders: svc, timeout: timeout}
}

type UpdateStatusRequestDTO struct {
	Status domain.OrderStatus `json:"status"`
}

type UpdateNotesRequestDTO struct {
	Notes string `json:"notes"`
}

// GET /api/v1/admin/orders
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	filter := orders.Filter{
		Status: domain.OrderStatus(q.Get("status")),
		Email:  q.Get("email"),
		Search: q.Get("search"),
	}
	page, ok := intParam(w, q.Get("page"), "page")
	if !ok {
		return
	}
	pageSize, ok := intParam(w, q.Get("page_size"), "page_size")
	if !ok {
		return
	}

	res, err := h.orders.ListOrders(ctx, filter, page, pageSize)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// PATCH /api/v1/admin/orders/{order_id}/status
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateStatusRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.orders.SetOrderStatus(ctx, chi.URLParam(r, "order_id"), req.Status)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// PATCH /api/v1/admin/orders/{order_id}/notes
func (h *AdminHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateNotesRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.orders.SetOrderNotes(ctx, chi.URLParam(r, "order_id"), req.Notes)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
