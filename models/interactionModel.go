package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InteractionType string

const (
	InteractionCall          InteractionType = "Call"
	InteractionEmail         InteractionType = "Email"
	InteractionRegularUpdate InteractionType = "Regular-Update"
)

type Interaction struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id"`
	RestaurantID primitive.ObjectID `json:"restaurantId" bson:"restaurantId"`
	Type         InteractionType    `json:"type" bson:"type"`
	From         primitive.ObjectID `json:"from" bson:"from"`
	To           primitive.ObjectID `json:"to" bson:"to"`
	About        string             `json:"about" bson:"about"`
	Time         time.Time          `json:"time" bson:"time"`
}

// Call is the legacy interaction record still written by /api/calls.
type Call struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id"`
	RestaurantID primitive.ObjectID `json:"restaurantId" bson:"restaurantId"`
	Time         time.Time          `json:"time" bson:"time"`
	Duration     int                `json:"duration" bson:"duration"`
	Purpose      string             `json:"purpose" bson:"purpose"`
	Notes        string             `json:"notes,omitempty" bson:"notes,omitempty"`
}
