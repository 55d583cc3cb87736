package domain

import "time"

const OrderEventsTopic = "order.events"

type OrderEventType string

const (
	OrderEventCreated   OrderEventType = "order.created"
	OrderEventCancelled OrderEventType = "order.cancelled"
)

type OrderEventLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

type OrderEvent struct {
	Type        OrderEventType   `json:"type"`
	OrderID     string           `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	AccountID   string           `json:"account_id"`
	Lines       []OrderEventLine `json:"lines"`
	Total       int64            `json:"total"`
	Timestamp   time.Time        `json:"timestamp"`
}

// NewOrderEvent snapshots the parts of an order that downstream consumers
// (notification worker) need, so they never have to read the database.
func NewOrderEvent(typ OrderEventType, o *Order) OrderEvent {
	lines := make([]OrderEventLine, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderEventLine{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price}
	}
	return OrderEvent{
		Type:        typ,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		AccountID:   o.AccountID,
		Lines:       lines,
		Total:       o.Total,
		Timestamp:   time.Now().UTC(),
	}
}
