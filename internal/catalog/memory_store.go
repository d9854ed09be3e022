package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

// MemoryStore implements Catalog with in-memory storage
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewMemoryStore(products ...*domain.Product) *MemoryStore {
	s := &MemoryStore{products: make(map[string]*domain.Product)}
	for _, p := range products {
		cp := *p
		s.products[p.ID] = &cp
	}
	return s
}

func (s *MemoryStore) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) DecrementInventory(_ context.Context, id string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return ErrProductNotFound
	}
	if !p.Available(quantity) {
		return ErrInsufficientStock
	}
	p.Inventory -= quantity
	if p.Inventory == 0 {
		p.InStock = false
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) RestoreInventory(_ context.Context, id string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return ErrProductNotFound
	}
	p.Inventory += quantity
	p.InStock = true
	p.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ListProducts(_ context.Context, filter ProductFilter) (*ProductPage, error) {
	f := filter.Normalize()

	s.mu.RLock()
	matched := make([]*domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if f.matches(p) {
			cp := *p
			matched = append(matched, &cp)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(matched)
	total := len(matched)
	start := min(f.offset(), total)
	end := min(start+f.Limit, total)
	return newPage(matched[start:end], f, total), nil
}

func (s *MemoryStore) GetProductBySlug(_ context.Context, slug string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p := s.bySlug(slug); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, ErrProductNotFound
}

func (s *MemoryStore) SaveProduct(_ context.Context, p *domain.Product) error {
	cp := *p
	now := time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if held := s.bySlug(cp.Slug); held != nil && held.ID != cp.ID {
		return ErrDuplicateSlug
	}
	s.products[p.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

// bySlug requires s.mu. Empty slugs never match.
func (s *MemoryStore) bySlug(slug string) *domain.Product {
	if slug == "" {
		return nil
	}
	for _, p := range s.products {
		if p.Slug == slug {
			return p
		}
	}
	return nil
}
