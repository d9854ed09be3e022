package checkout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/orders"
)

// CatalogMock wraps an in-memory catalog and lets tests inject failures.
type CatalogMock struct {
	*catalog.MemoryStore

	getCalls      atomic.Int32
	getErr        map[string]error
	decrementErr  map[string]error
	onDecrement   func(productID string)
	restoreCtxErr []error
	mu            sync.Mutex
}

func newCatalogMock(products ...*domain.Product) *CatalogMock {
	return &CatalogMock{
		MemoryStore:  catalog.NewMemoryStore(products...),
		getErr:       map[string]error{},
		decrementErr: map[string]error{},
	}
}

func (c *CatalogMock) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	c.getCalls.Add(1)
	if err := c.getErr[id]; err != nil {
		return nil, err
	}
	return c.MemoryStore.GetProduct(ctx, id)
}

func (c *CatalogMock) DecrementInventory(ctx context.Context, id string, quantity int) error {
	if c.onDecrement != nil {
		c.onDecrement(id)
	}
	if err := c.decrementErr[id]; err != nil {
		return err
	}
	return c.MemoryStore.DecrementInventory(ctx, id, quantity)
}

func (c *CatalogMock) RestoreInventory(ctx context.Context, id string, quantity int) error {
	c.mu.Lock()
	c.restoreCtxErr = append(c.restoreCtxErr, ctx.Err())
	c.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return c.MemoryStore.RestoreInventory(ctx, id, quantity)
}

func (c *CatalogMock) inventory(id string) int {
	p, err := c.MemoryStore.GetProduct(context.Background(), id)
	if err != nil {
		return -1
	}
	return p.Inventory
}

// RepoMock wraps an in-memory order repository with injectable create errors.
type RepoMock struct {
	*orders.MemoryRepository
	createErr   error
	createCalls atomic.Int32
}

func newRepoMock() *RepoMock {
	return &RepoMock{MemoryRepository: orders.NewMemoryRepository()}
}

func (r *RepoMock) CreateOrder(ctx context.Context, order *domain.Order) error {
	r.createCalls.Add(1)
	if r.createErr != nil {
		return r.createErr
	}
	return r.MemoryRepository.CreateOrder(ctx, order)
}

type NotifierMock struct {
	mu          sync.Mutex
	customer    []string
	admin       []string
	customerErr error
	adminErr    error
	block       chan struct{}
}

func (n *NotifierMock) NotifyCustomer(ctx context.Context, order *domain.Order) error {
	if n.block != nil {
		<-n.block
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.customer = append(n.customer, order.OrderNumber)
	return n.customerErr
}

func (n *NotifierMock) NotifyAdmin(ctx context.Context, order *domain.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.admin = append(n.admin, order.OrderNumber)
	return n.adminErr
}

func (n *NotifierMock) calls() (customer, admin []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.customer...), append([]string(nil), n.admin...)
}

// fixedNumbers hands out numbers from a list, then repeats the last one.
type fixedNumbers struct {
	mu      sync.Mutex
	numbers []string
}

func (f *fixedNumbers) Next() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.numbers[0]
	if len(f.numbers) > 1 {
		f.numbers = f.numbers[1:]
	}
	return n
}

var errDown = errors.New("connection refused")
