package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestOrder(number string, createdAt time.Time) *domain.Order {
	return &domain.Order{
		ID:          uuid.NewString(),
		OrderNumber: number,
		Customer: domain.CustomerInfo{
			Name:    "Ayesha Khan",
			Email:   "ayesha@example.com",
			Phone:   "03001234567",
			Address: "12 Mall Road",
			City:    "Lahore",
		},
		Lines: []domain.OrderLine{
			{ProductID: "p1", Name: "Lawn Suit", Quantity: 2, UnitPrice: 4500},
			{ProductID: "p2", Name: "Dupatta", Quantity: 1, UnitPrice: 1800},
		},
		Total:         10800,
		PaymentMethod: domain.PaymentCashOnDelivery,
		Status:        domain.OrderStatusPending,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

// runRepositoryContract exercises the behaviour every Repository backend must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		repo := newRepo(t)
		order := newTestOrder("BA1", baseTime)
		require.NoError(t, repo.CreateOrder(ctx, order))

		byNumber, err := repo.GetOrderByNumber(ctx, "BA1")
		require.NoError(t, err)
		assert.Equal(t, order.ID, byNumber.ID)
		assert.Equal(t, order.Customer, byNumber.Customer)
		assert.Equal(t, order.Lines, byNumber.Lines)
		assert.InDelta(t, 10800.0, byNumber.Total, 1e-9)
		assert.Equal(t, domain.PaymentCashOnDelivery, byNumber.PaymentMethod)
		assert.Equal(t, domain.OrderStatusPending, byNumber.Status)
		assert.WithinDuration(t, baseTime, byNumber.CreatedAt, time.Millisecond)

		byID, err := repo.GetOrderByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "BA1", byID.OrderNumber)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetOrderByNumber(ctx, "BA404")
		assert.ErrorIs(t, err, ErrOrderNotFound)
		_, err = repo.GetOrderByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrOrderNotFound)
		_, err = repo.GetOrderByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("DuplicateOrderNumber", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateOrder(ctx, newTestOrder("BA1", baseTime)))

		err := repo.CreateOrder(ctx, newTestOrder("BA1", baseTime))
		assert.ErrorIs(t, err, ErrDuplicateOrderNumber)
	})

	t.Run("UpdateStatusAndNotes", func(t *testing.T) {
		repo := newRepo(t)
		order := newTestOrder("BA1", baseTime)
		require.NoError(t, repo.CreateOrder(ctx, order))

		require.NoError(t, repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusShipped))
		require.NoError(t, repo.UpdateOrderNotes(ctx, order.ID, "leave at gate"))

		got, err := repo.GetOrderByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusShipped, got.Status)
		assert.Equal(t, "leave at gate", got.Notes)
		assert.True(t, got.UpdatedAt.After(baseTime))

		// no transition graph: any listed status may follow any other
		require.NoError(t, repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPending))
		got, err = repo.GetOrderByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPending, got.Status)

		assert.ErrorIs(t, repo.UpdateOrderStatus(ctx, uuid.NewString(), domain.OrderStatusShipped), ErrOrderNotFound)
		assert.ErrorIs(t, repo.UpdateOrderNotes(ctx, uuid.NewString(), "x"), ErrOrderNotFound)
	})

	t.Run("ListOrders", func(t *testing.T) {
		repo := newRepo(t)
		for i := 0; i < 5; i++ {
			o := newTestOrder(fmt.Sprintf("BA%d", i), baseTime.Add(time.Duration(i)*time.Minute))
			if i%2 == 0 {
				o.Status = domain.OrderStatusConfirmed
			}
			if i == 3 {
				o.Customer.Name = "Bilal Ahmed"
				o.Customer.Email = "Bilal@Example.com"
			}
			require.NoError(t, repo.CreateOrder(ctx, o))
		}

		page, err := repo.ListOrders(ctx, Filter{}, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, 5, page.Total)
		assert.Equal(t, 3, page.Pages)
		require.Len(t, page.Orders, 2)
		assert.Equal(t, "BA4", page.Orders[0].OrderNumber)
		assert.Equal(t, "BA3", page.Orders[1].OrderNumber)

		page, err = repo.ListOrders(ctx, Filter{}, 3, 2)
		require.NoError(t, err)
		require.Len(t, page.Orders, 1)
		assert.Equal(t, "BA0", page.Orders[0].OrderNumber)

		page, err = repo.ListOrders(ctx, Filter{Status: domain.OrderStatusConfirmed}, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, DefaultPageSize, page.PageSize)

		page, err = repo.ListOrders(ctx, Filter{Email: "bilal@example.com"}, 1, 10)
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
		assert.Equal(t, "BA3", page.Orders[0].OrderNumber)

		page, err = repo.ListOrders(ctx, Filter{Search: "bilal"}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)

		page, err = repo.ListOrders(ctx, Filter{Search: "BA2"}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)

		page, err = repo.ListOrders(ctx, Filter{Status: domain.OrderStatusCancelled}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 0, page.Total)
		assert.NotNil(t, page.Orders)
	})
}

func TestNormalizePage(t *testing.T) {
	page, size := NormalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)

	page, size = NormalizePage(4, 1000)
	assert.Equal(t, 4, page)
	assert.Equal(t, MaxPageSize, size)
}
