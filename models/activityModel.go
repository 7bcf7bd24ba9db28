package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityKind names the collection an activity query runs against.
type ActivityKind string

const (
	ActivityInteractions ActivityKind = "interactions"
	ActivityOrders       ActivityKind = "orders"
)

// ActivityQuery selects records of one kind for one restaurant. Status applies to
// orders and Type to interactions; empty values match everything. A zero Since
// disables the lower time bound.
type ActivityQuery struct {
	Kind         ActivityKind
	RestaurantID primitive.ObjectID
	Status       OrderStatus
	Type         InteractionType
	Since        time.Time
}

// DayBucket is the number of matching records on one UTC calendar day ("2006-01-02").
type DayBucket struct {
	Day   string `json:"day" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}

// DayLayout formats the day key of a DayBucket.
const DayLayout = "2006-01-02"

type LeadSummary struct {
	Lead
	AverageInteractions int64      `json:"averageInteractions"`
	AverageOrders       int64      `json:"averageOrders"`
	LastInteractionTime *time.Time `json:"lastInteractionTime"`
}

type LeadStats struct {
	InteractionsToday      int64      `json:"interactionsToday"`
	OrdersToday            int64      `json:"ordersToday"`
	AverageInteractions    int64      `json:"averageInteractions"`
	AverageCompletedOrders int64      `json:"averageCompletedOrders"`
	AverageCanceledOrders  int64      `json:"averageCanceledOrders"`
	PendingOrders          int64      `json:"pendingOrders"`
	LastInteractionTime    *time.Time `json:"lastInteractionTime"`
}

type PerformanceMetric struct {
	ID                     primitive.ObjectID `json:"id"`
	Name                   string             `json:"name"`
	AverageCompletedOrders int64              `json:"averageCompletedOrders"`
	AverageCanceledOrders  int64              `json:"averageCanceledOrders"`
	AverageInteractions    int64              `json:"averageInteractions"`
	WeightedScore          float64            `json:"weightedScore"`
	PerformanceIndex       float64            `json:"performanceIndex"`
}

type DueLead struct {
	ID                 primitive.ObjectID `json:"id"`
	Name               string             `json:"name"`
	AssignedKAM        string             `json:"assignedKAM"`
	NextInteractionDue time.Time          `json:"nextInteractionDue"`
}
