package domain

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// OrderStatuses returns every status in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses)
	return out
}

func (s OrderStatus) Valid() bool {
	for _, v := range orderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cod"
	PaymentBankTransfer   PaymentMethod = "bank"
	PaymentJazzCash       PaymentMethod = "jazzcash"
	PaymentEasypaisa      PaymentMethod = "easypaisa"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentBankTransfer, PaymentJazzCash, PaymentEasypaisa:
		return true
	}
	return false
}

type CustomerInfo struct {
	Name    string `bson:"name" json:"name" validate:"required"`
	Email   string `bson:"email" json:"email" validate:"required"`
	Phone   string `bson:"phone" json:"phone" validate:"required"`
	Address string `bson:"address" json:"address" validate:"required"`
	City    string `bson:"city" json:"city" validate:"required"`
}

// OrderLine is the committed form of a cart line. Name and UnitPrice come
// from the catalog at commit time.
type OrderLine struct {
	ProductID string  `bson:"product_id" json:"product_id"`
	Name      string  `bson:"name" json:"name"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	UnitPrice float64 `bson:"unit_price" json:"unit_price"`
}

func (l OrderLine) LineTotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

type Order struct {
	ID            string        `bson:"_id" json:"id"`
	OrderNumber   string        `bson:"order_number" json:"order_number"`
	Customer      CustomerInfo  `bson:"customer" json:"customer"`
	Lines         []OrderLine   `bson:"lines" json:"lines"`
	Total         float64       `bson:"total" json:"total"`
	PaymentMethod PaymentMethod `bson:"payment_method" json:"payment_method"`
	Status        OrderStatus   `bson:"status" json:"status"`
	Notes         string        `bson:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at" json:"updated_at"`
}
