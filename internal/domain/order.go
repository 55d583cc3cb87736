package domain

import (
	"encoding/json"
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

// ParseOrderStatus reports whether s is a recognized order status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

// Cancellable reports whether an order in this status may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// OrderLine is immutable after the order is created. Product display fields
// are point-in-time snapshots, decoupled from later catalog edits.
type OrderLine struct {
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
	Price        int64  `json:"price"`
	ProductName  string `json:"product_name"`
	ProductSKU   string `json:"product_sku"`
	ProductImage string `json:"product_image"`
}

// Order core fields are fixed at creation. Only Status, PaymentStatus and the
// delivery tracking fields change afterwards. Addresses are opaque value
// blobs copied from the account's records at checkout time.
type Order struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"order_number"`
	AccountID         string          `json:"account_id"`
	Status            OrderStatus     `json:"status"`
	PaymentStatus     PaymentStatus   `json:"payment_status"`
	Subtotal          int64           `json:"subtotal"`
	Shipping          int64           `json:"shipping"`
	Tax               int64           `json:"tax"`
	Discount          int64           `json:"discount"`
	Total             int64           `json:"total"`
	ShippingAddress   json.RawMessage `json:"shipping_address"`
	BillingAddress    json.RawMessage `json:"billing_address,omitempty"`
	PaymentMethod     string          `json:"payment_method"`
	Notes             string          `json:"notes,omitempty"`
	TrackingNumber    string          `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time      `json:"actual_delivery,omitempty"`
	Lines             []OrderLine     `json:"lines"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
