package orders

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

type MemoryRepository struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Order
	byNumber map[string]string // order number -> id
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:     make(map[string]*domain.Order),
		byNumber: make(map[string]string),
	}
}

func (r *MemoryRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byNumber[order.OrderNumber]; taken {
		return ErrDuplicateOrderNumber
	}
	if _, taken := r.byID[order.ID]; taken {
		return ErrDuplicateOrderNumber
	}
	r.byID[order.ID] = cloneOrder(order)
	r.byNumber[order.OrderNumber] = order.ID
	return nil
}

func (r *MemoryRepository) GetOrderByNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byNumber[orderNumber]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(r.byID[id]), nil
}

func (r *MemoryRepository) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.byID[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *MemoryRepository) UpdateOrderStatus(_ context.Context, id string, status domain.OrderStatus) error {
	return r.update(id, func(o *domain.Order) { o.Status = status })
}

func (r *MemoryRepository) UpdateOrderNotes(_ context.Context, id string, notes string) error {
	return r.update(id, func(o *domain.Order) { o.Notes = notes })
}

func (r *MemoryRepository) ListOrders(_ context.Context, filter Filter, page, pageSize int) (*Page, error) {
	page, pageSize = NormalizePage(page, pageSize)
	filter.Search = strings.TrimSpace(filter.Search)

	r.mu.RLock()
	matched := make([]*domain.Order, 0, len(r.byID))
	for _, o := range r.byID {
		if filter.matches(o) {
			matched = append(matched, cloneOrder(o))
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].OrderNumber > matched[j].OrderNumber
	})

	total := len(matched)
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)
	return newPage(matched[start:end], page, pageSize, total), nil
}

func (r *MemoryRepository) update(id string, fn func(o *domain.Order)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[id]
	if !ok {
		return ErrOrderNotFound
	}
	fn(o)
	o.UpdatedAt = time.Now()
	return nil
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Lines = make([]domain.OrderLine, len(o.Lines))
	copy(cp.Lines, o.Lines)
	return &cp
}
