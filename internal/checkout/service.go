// Package checkout turns a cart snapshot into a persisted order. Prices and
// stock come from the catalog, never from the client; inventory is taken with
// atomic conditional decrements and handed back if the commit aborts.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/orders"
	"github.com/google/uuid"
)

const maxNumberAttempts = 3

// Catalog is the subset of the product catalog the workflow needs.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	DecrementInventory(ctx context.Context, id string, quantity int) error
	RestoreInventory(ctx context.Context, id string, quantity int) error
}

// Notifier delivers order notifications. Both calls are best effort.
type Notifier interface {
	NotifyCustomer(ctx context.Context, order *domain.Order) error
	NotifyAdmin(ctx context.Context, order *domain.Order) error
}

type Config struct {
	// ReadConcurrency bounds parallel catalog lookups per order
	ReadConcurrency     int
	NotifyTimeout       time.Duration
	CompensationTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.ReadConcurrency < 1 {
		c.ReadConcurrency = 8
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = 30 * time.Second
	}
	if c.CompensationTimeout <= 0 {
		c.CompensationTimeout = 10 * time.Second
	}
	return c
}

type LineRequest struct {
	ProductID string
	Quantity  int
	// UnitPrice is what the client believes the price is. It is only
	// compared against the catalog for logging.
	UnitPrice float64
}

type PlaceOrderRequest struct {
	Lines         []LineRequest
	Customer      domain.CustomerInfo
	PaymentMethod domain.PaymentMethod
	Notes         string
}

type Service struct {
	catalog  Catalog
	orders   orders.Repository
	notifier Notifier
	numbers  NumberGenerator
	cfg      Config
	now      func() time.Time

	dispatches sync.WaitGroup
}

func NewService(catalog Catalog, repo orders.Repository, notifier Notifier, cfg Config) *Service {
	return &Service{
		catalog:  catalog,
		orders:   repo,
		notifier: notifier,
		numbers:  NewOrderNumbers(),
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
}

// PlaceOrder validates req, reprices it from the catalog, takes inventory and
// persists a pending order. Errors are one of *ValidationError
// (ErrInvalidOrder), *RejectionError (ErrProductNotFound, ErrOutOfStock) or an
// infrastructure error; in every error case no order exists and inventory is
// as it was. Notifications are dispatched after the order is stored and never
// affect the result.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	start := time.Now()
	defer metrics.ObserveCommit(start)

	req, err := normalize(req)
	if err != nil {
		s.reject(ctx, err)
		return nil, err
	}

	lines, total, err := s.priceLines(ctx, req.Lines)
	if err != nil {
		s.reject(ctx, err)
		return nil, err
	}

	if err := s.reserveInventory(ctx, lines); err != nil {
		s.reject(ctx, err)
		return nil, err
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:            uuid.NewString(),
		Customer:      req.Customer,
		Lines:         lines,
		Total:         total,
		PaymentMethod: req.PaymentMethod,
		Status:        domain.OrderStatusPending,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.persist(ctx, order); err != nil {
		s.releaseInventory(ctx, lines)
		s.reject(ctx, err)
		return nil, err
	}

	metrics.OrdersPlaced.WithLabelValues(string(order.PaymentMethod)).Inc()
	logging.Ctx(ctx).Info().
		Str("order_number", order.OrderNumber).
		Str("order_id", order.ID).
		Int("lines", len(order.Lines)).
		Float64("total", order.Total).
		Str("payment_method", string(order.PaymentMethod)).
		Msg("order placed")

	s.dispatchNotifications(order)
	return order, nil
}

func (s *Service) persist(ctx context.Context, order *domain.Order) error {
	var err error
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		order.OrderNumber = s.numbers.Next()
		err = s.orders.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, orders.ErrDuplicateOrderNumber) {
			return fmt.Errorf("persist order: %w", err)
		}
		logging.Ctx(ctx).Warn().Str("order_number", order.OrderNumber).Int("attempt", attempt).Msg("order number collision")
	}
	return fmt.Errorf("persist order after %d attempts: %w", maxNumberAttempts, err)
}

func (s *Service) reject(ctx context.Context, err error) {
	var (
		rejection *RejectionError
		reason    string
	)
	switch {
	case errors.Is(err, ErrInvalidOrder):
		reason = "invalid"
	case errors.As(err, &rejection) && errors.Is(rejection.Reason, ErrOutOfStock):
		reason = "out_of_stock"
	case errors.As(err, &rejection):
		reason = "not_found"
	default:
		reason = "internal"
	}
	metrics.OrdersRejected.WithLabelValues(reason).Inc()

	log := logging.Ctx(ctx)
	if reason == "internal" {
		log.Error().Err(err).Msg("order commit failed")
		return
	}
	log.Info().Err(err).Str("reason", reason).Msg("order rejected")
}

// Wait blocks until every notification dispatched so far has finished, or ctx
// is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.dispatches.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
