package domain

import "time"

// Product is owned by the catalog; the fulfillment core reads it for
// validation and line snapshots and only ever mutates Stock.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku"`
	ImageURL  string    `json:"image_url"`
	Price     int64     `json:"price"`
	Stock     int       `json:"stock"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StockLevel struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
	IsActive  bool   `json:"is_active"`
}
