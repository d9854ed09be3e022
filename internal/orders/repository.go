package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/fjod/storefront/internal/domain"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Repository interface {
	// CreateOrder writes the whole order or nothing. A taken order number
	// returns ErrDuplicateOrderNumber.
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
	UpdateOrderNotes(ctx context.Context, id string, notes string) error
	// ListOrders returns orders newest first
	ListOrders(ctx context.Context, filter Filter, page, pageSize int) (*Page, error)
}

type Filter struct {
	Status domain.OrderStatus
	// Email matches the customer email, ignoring case
	Email string
	// Search matches a substring of the order number or customer name
	Search string
}

func (f Filter) matches(o *domain.Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Email != "" && !strings.EqualFold(o.Customer.Email, f.Email) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(o.OrderNumber), q) && !strings.Contains(strings.ToLower(o.Customer.Name), q) {
			return false
		}
	}
	return true
}

type Page struct {
	Orders   []*domain.Order `json:"orders"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Total    int             `json:"total"`
	Pages    int             `json:"pages"`
}

// NormalizePage clamps paging input to sane bounds.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func newPage(list []*domain.Order, page, pageSize, total int) *Page {
	if list == nil {
		list = []*domain.Order{}
	}
	return &Page{
		Orders:   list,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Pages:    (total + pageSize - 1) / pageSize,
	}
}
