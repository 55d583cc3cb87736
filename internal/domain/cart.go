package domain

import "time"

// CartLine captures the price and display fields at add-time. The price a
// customer sees in the cart is the price carried into checkout.
type CartLine struct {
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
	Price        int64  `json:"price"`
	ProductName  string `json:"product_name"`
	ProductSKU   string `json:"product_sku"`
	ProductImage string `json:"product_image"`
}

// Cart is 1:1 with an account. Subtotal and TotalItems are always recomputed
// from Lines on mutation, never patched incrementally.
type Cart struct {
	ID         string     `json:"id"`
	AccountID  string     `json:"account_id"`
	Lines      []CartLine `json:"lines"`
	Subtotal   int64      `json:"subtotal"`
	TotalItems int        `json:"total_items"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
