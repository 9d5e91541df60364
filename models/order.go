package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses. delivered and cancelled are terminal.
const (
	OrderPending        = "pending"
	OrderProcessing     = "processing"
	OrderReadyForPickup = "ready_for_pickup"
	OrderShipped        = "shipped"
	OrderDelivered      = "delivered"
	OrderCancelled      = "cancelled"
)

// orderTransitions is the legal status graph. There is no path back to
// pending, and terminal states have no outgoing edges.
var orderTransitions = map[string][]string{
	OrderPending:        {OrderProcessing, OrderCancelled},
	OrderProcessing:     {OrderReadyForPickup, OrderCancelled},
	OrderReadyForPickup: {OrderShipped},
	OrderShipped:        {OrderDelivered},
	OrderDelivered:      {},
	OrderCancelled:      {},
}

// IsValidOrderStatus reports whether s is a known order status.
func IsValidOrderStatus(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further transitions are possible.
func IsTerminalStatus(s string) bool {
	return len(orderTransitions[s]) == 0
}

// OrderItem is a line item with name and price snapshotted at order time, so
// historical orders stay immutable even if the menu changes later.
type OrderItem struct {
	MenuID   uuid.UUID `bson:"menu_id" json:"menu_id"`
	Name     string    `bson:"name" json:"name"`
	Quantity int       `bson:"quantity" json:"quantity"`
	Price    float64   `bson:"price" json:"price"`
}

type DeliveryInfo struct {
	Address   string     `bson:"address" json:"address"`
	RiderID   *uuid.UUID `bson:"rider_id,omitempty" json:"rider_id,omitempty"`
	RiderName string     `bson:"rider_name,omitempty" json:"rider_name,omitempty"`
	ETA       *time.Time `bson:"eta,omitempty" json:"eta,omitempty"`
}

type Order struct {
	ID           uuid.UUID    `bson:"_id" json:"id"`
	OrderNumber  string       `bson:"order_number" json:"order_number"`
	UserID       uuid.UUID    `bson:"user_id" json:"user_id"`
	RestaurantID uuid.UUID    `bson:"restaurant_id" json:"restaurant_id"`
	Items        []OrderItem  `bson:"items" json:"items"`
	Subtotal     float64      `bson:"subtotal" json:"subtotal"`
	Tax          float64      `bson:"tax" json:"tax"`
	DeliveryFee  float64      `bson:"delivery_fee" json:"delivery_fee"`
	TotalPrice   float64      `bson:"total_price" json:"total_price"`
	Status       string       `bson:"status" json:"status"`
	DeliveryInfo DeliveryInfo `bson:"delivery_info" json:"delivery_info"`
	CreatedAt    time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `bson:"updated_at" json:"updated_at"`
}
