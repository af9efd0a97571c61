package domain

import "time"

const EventTypeOrderPlaced = "order.placed"

type OutboxEvent struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// OrderPlacedPayload is the body of an order.placed event.
type OrderPlacedPayload struct {
	OrderID        int64       `json:"order_id"`
	UserID         int64       `json:"user_id"`
	TotalAmount    string      `json:"total_amount"`
	GatewayOrderID string      `json:"gateway_order_id"`
	PaymentRef     string      `json:"payment_id"`
	Items          []OrderLine `json:"items"`
	PlacedAt       time.Time   `json:"placed_at"`
}
