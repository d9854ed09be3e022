// Package cart implements the shopper-side cart: an in-memory set of line
// items whose totals are recomputed after every mutation and whose snapshot
// is persisted to a key-value store in the background.
//
// Totals computed here are advisory. The checkout workflow never trusts them
// and reprices every line from the catalog.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/cartstore"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/metrics"
)

const defaultSaveTimeout = 5 * time.Second

// Store persists serialized carts. Load returns cartstore.ErrMiss when
// nothing is stored under key.
type Store interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

// ItemSnapshot is the catalog data copied into a cart line when it is added.
type ItemSnapshot struct {
	ProductID string
	Name      string
	UnitPrice float64
}

type Totals struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// Engine owns one shopper's cart. All methods are safe for concurrent use,
// although a session normally has a single writer.
type Engine struct {
	key         string
	store       Store
	saveTimeout time.Duration
	now         func() time.Time

	mu      sync.Mutex
	cart    domain.Cart
	version uint64

	saveMu    sync.Mutex
	persisted uint64 // highest version handed to the store
	saves     sync.WaitGroup

	lastUsed time.Time
	pending  int // saves scheduled but not finished, guarded by mu
}

type Option func(*Engine)

func WithSaveTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.saveTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(key string, store Store, opts ...Option) *Engine {
	e := &Engine{
		key:         key,
		store:       store,
		saveTimeout: defaultSaveTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cart = domain.Cart{Items: []domain.CartItem{}, UpdatedAt: e.now()}
	e.lastUsed = e.now()
	return e
}

func (e *Engine) Key() string { return e.key }

// AddItem appends a line for item, or increments the existing line for the
// same product. A quantity below 1 counts as 1. The existing line keeps the
// name and price captured when it was first added.
func (e *Engine) AddItem(item ItemSnapshot, quantity int) domain.Cart {
	if quantity < 1 {
		quantity = 1
	}
	return e.mutate("add", func(c *domain.Cart) {
		if i := indexOf(c.Items, item.ProductID); i >= 0 {
			c.Items[i].Quantity += quantity
			return
		}
		c.Items = append(c.Items, domain.CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  quantity,
			AddedAt:   e.now(),
		})
	})
}

// RemoveItem drops the line for productID. Absent products are a no-op.
func (e *Engine) RemoveItem(productID string) domain.Cart {
	return e.mutate("remove", func(c *domain.Cart) {
		if i := indexOf(c.Items, productID); i >= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
	})
}

// UpdateQuantity sets the quantity of an existing line. A quantity below 1
// removes the line.
func (e *Engine) UpdateQuantity(productID string, quantity int) domain.Cart {
	return e.mutate("update", func(c *domain.Cart) {
		i := indexOf(c.Items, productID)
		if i < 0 {
			return
		}
		if quantity < 1 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
		c.Items[i].Quantity = quantity
	})
}

func (e *Engine) Clear() domain.Cart {
	return e.mutate("clear", func(c *domain.Cart) {
		c.Items = []domain.CartItem{}
	})
}

// Snapshot returns a copy of the current cart.
func (e *Engine) Snapshot() domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = e.now()
	return copyCart(e.cart)
}

func (e *Engine) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Totals{Count: e.cart.TotalItems, Total: e.cart.TotalPrice}
}

func (e *Engine) Contains(productID string) bool {
	_, ok := e.Item(productID)
	return ok
}

func (e *Engine) Item(productID string) (domain.CartItem, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := indexOf(e.cart.Items, productID); i >= 0 {
		return e.cart.Items[i], true
	}
	return domain.CartItem{}, false
}

// Restore replaces the cart with the persisted snapshot. A missing or
// unreadable snapshot leaves an empty cart; only store failures are returned.
func (e *Engine) Restore(ctx context.Context) error {
	data, err := e.store.Load(ctx, e.key)
	if errors.Is(err, cartstore.ErrMiss) {
		e.replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load cart %s: %w", e.key, err)
	}

	items, err := decode(data)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", e.key).Msg("discarding unreadable cart")
		metrics.CartRestoreFailures.Inc()
		items = nil
	}
	e.replace(items)
	return nil
}

// Flush blocks until every scheduled save has finished or ctx is done.
func (e *Engine) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.saves.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) touch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = e.now()
}

// evictable reports whether the engine has been idle since before cutoff and
// has nothing left to write.
func (e *Engine) evictable(cutoff time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending == 0 && e.lastUsed.Before(cutoff)
}

func (e *Engine) saveDone() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending--
}

func (e *Engine) replace(items []domain.CartItem) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if items == nil {
		items = []domain.CartItem{}
	}
	e.cart.Items = items
	e.cart.UpdatedAt = e.now()
	recompute(&e.cart)
}

func (e *Engine) mutate(op string, fn func(c *domain.Cart)) domain.Cart {
	e.mu.Lock()
	fn(&e.cart)
	recompute(&e.cart)
	now := e.now()
	e.cart.UpdatedAt = now
	e.lastUsed = now
	e.version++
	version := e.version
	snapshot := copyCart(e.cart)
	e.pending++
	e.mu.Unlock()

	metrics.CartMutations.WithLabelValues(op).Inc()
	e.persist(version, snapshot)
	return snapshot
}

// persist saves snapshot without blocking the caller. Saves for one engine
// are serialized and a snapshot older than one already handed to the store is
// dropped, so a slow save can never clobber a newer one. The caller counts
// the save in e.pending first; persist releases it.
func (e *Engine) persist(version uint64, snapshot domain.Cart) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		logging.Error().Err(err).Str("key", e.key).Msg("marshal cart failed")
		e.saveDone()
		return
	}

	e.saves.Add(1)
	go func() {
		defer e.saves.Done()
		defer e.saveDone()

		e.saveMu.Lock()
		defer e.saveMu.Unlock()
		if version <= e.persisted {
			return
		}
		e.persisted = version

		ctx, cancel := context.WithTimeout(context.Background(), e.saveTimeout)
		defer cancel()
		if err := e.store.Save(ctx, e.key, data); err != nil {
			metrics.CartSaveFailures.Inc()
			logging.Warn().Err(err).Str("key", e.key).Uint64("version", version).Msg("cart save failed")
		}
	}()
}

type persistedCart struct {
	Items []domain.CartItem `json:"items"`
}

func decode(data []byte) ([]domain.CartItem, error) {
	var pc persistedCart
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	seen := make(map[string]struct{}, len(pc.Items))
	for _, it := range pc.Items {
		if it.ProductID == "" {
			return nil, errors.New("cart line without product id")
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("cart line %s has quantity %d", it.ProductID, it.Quantity)
		}
		if it.UnitPrice < 0 {
			return nil, fmt.Errorf("cart line %s has negative price", it.ProductID)
		}
		if _, dup := seen[it.ProductID]; dup {
			return nil, fmt.Errorf("duplicate cart line %s", it.ProductID)
		}
		seen[it.ProductID] = struct{}{}
	}
	return pc.Items, nil
}

func recompute(c *domain.Cart) {
	count := 0
	total := 0.0
	for _, it := range c.Items {
		count += it.Quantity
		total += it.LineTotal()
	}
	c.TotalItems = count
	c.TotalPrice = total
}

func indexOf(items []domain.CartItem, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func copyCart(c domain.Cart) domain.Cart {
	out := c
	out.Items = make([]domain.CartItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}
