package notify

import (
	"context"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	gobreaker "github.com/sony/gobreaker/v2"
)

type BreakerConfig struct {
	Name string
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker.
	FailureThreshold uint32
	// Timeout is how long the breaker stays open before letting a probe
	// through.
	Timeout time.Duration
}

// Breaker stops calling a failing notifier for a while so a dead broker
// fails fast instead of holding notification goroutines.
type Breaker struct {
	next Notifier
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreaker(next Notifier, cfg BreakerConfig) *Breaker {
	if cfg.Name == "" {
		cfg.Name = "notifier"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

func (b *Breaker) NotifyCustomer(ctx context.Context, order *domain.Order) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.NotifyCustomer(ctx, order)
	})
	return err
}

func (b *Breaker) NotifyAdmin(ctx context.Context, order *domain.Order) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.NotifyAdmin(ctx, order)
	})
	return err
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
