package domain

import "time"

type Product struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Slug        string    `bson:"slug" json:"slug"`
	Description string    `bson:"description" json:"description"`
	Price       float64   `bson:"price" json:"price"`
	Category    string    `bson:"category" json:"category"`
	Image       string    `bson:"image" json:"image"`
	Images      []string  `bson:"images" json:"images"`
	InStock     bool      `bson:"in_stock" json:"in_stock"`
	Inventory   int       `bson:"inventory" json:"inventory"`
	Featured    bool      `bson:"featured" json:"featured"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// Available reports whether quantity units can be sold right now.
func (p *Product) Available(quantity int) bool {
	return p.InStock && p.Inventory >= quantity
}
