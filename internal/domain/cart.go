package domain

import "time"

// Cart is a shopper's working set of intended purchases. TotalItems and
// TotalPrice are derived from Items and are recomputed by the cart engine on
// every mutation.
type Cart struct {
	Items      []CartItem `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice float64    `json:"total_price"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CartItem carries a snapshot of the product's name and price taken when the
// item was first added.
type CartItem struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// LineTotal returns UnitPrice * Quantity.
func (i CartItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}
