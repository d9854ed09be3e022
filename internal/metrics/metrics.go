package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cart
	CartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart mutations by operation",
		},
		[]string{"operation"}, // add, remove, update, clear
	)

	CartSaveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cart_save_failures_total",
			Help: "Cart snapshots that could not be persisted",
		},
	)

	CartRestoreFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cart_restore_failures_total",
			Help: "Persisted carts discarded as unreadable",
		},
	)

	// Checkout
	OrdersPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Orders committed, by payment method",
		},
		[]string{"payment_method"},
	)

	OrdersRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_orders_rejected_total",
			Help: "Order attempts that did not commit, by reason",
		},
		[]string{"reason"}, // invalid, not_found, out_of_stock, internal
	)

	OrderCommitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_order_commit_duration_seconds",
			Help:    "Time spent in PlaceOrder",
			Buckets: prometheus.DefBuckets,
		},
	)

	InventoryCompensations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_inventory_compensations_total",
			Help: "Inventory restores issued after an aborted commit",
		},
		[]string{"result"}, // ok, failed
	)

	// Notifications
	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_notification_failures_total",
			Help: "Order notifications that could not be dispatched",
		},
		[]string{"kind"}, // customer, admin
	)
)

// ObserveCommit records the duration of one PlaceOrder call.
func ObserveCommit(start time.Time) {
	OrderCommitDuration.Observe(time.Since(start).Seconds())
}
