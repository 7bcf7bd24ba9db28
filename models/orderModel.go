package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// CanTransition reports whether an order in status s may move to next.
// Settled orders never change again.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	return s == OrderStatusPending && (next == OrderStatusCompleted || next == OrderStatusCancelled)
}

type OrderItem struct {
	Name     string  `json:"name" bson:"name" validate:"required"`
	Quantity int     `json:"quantity" bson:"quantity" validate:"required,min=1"`
	Price    float64 `json:"price" bson:"price" validate:"min=0"`
}

type Order struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id"`
	RestaurantID  primitive.ObjectID `json:"restaurantId" bson:"restaurantId"`
	TransactionID string             `json:"transactionId" bson:"transactionId"`
	Amount        float64            `json:"amount" bson:"amount"`
	Status        OrderStatus        `json:"status" bson:"status"`
	Items         []OrderItem        `json:"items" bson:"items"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Total sums price × quantity over the order's items.
func Total(items []OrderItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
