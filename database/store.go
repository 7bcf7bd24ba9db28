package database

import (
	"context"
	"time"

	"kam-backend/metrics"
	"kam-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when no document matches a lookup or a conditional update.
var ErrNotFound = models.ErrNotFound

type LeadRepository interface {
	InsertLead(ctx context.Context, lead *models.Lead) error
	FindLeadByID(ctx context.Context, id primitive.ObjectID) (*models.Lead, error)
	ListLeads(ctx context.Context) ([]models.Lead, error)
	UpdateLead(ctx context.Context, id primitive.ObjectID, update models.LeadUpdate) (*models.Lead, error)
	// SetLeadStatus also records loginAt as the last login time when it is non-nil.
	SetLeadStatus(ctx context.Context, id primitive.ObjectID, status models.LeadStatus, loginAt *time.Time) (*models.Lead, error)
	SetLeadUser(ctx context.Context, leadID, userID primitive.ObjectID) error
	DeleteLead(ctx context.Context, id primitive.ObjectID) error
	// CountLeads counts leads in status, or all leads when status is empty.
	CountLeads(ctx context.Context, status models.LeadStatus) (int64, error)
	RecentLeads(ctx context.Context, limit int64) ([]models.Lead, error)
	AddContact(ctx context.Context, leadID primitive.ObjectID, contact models.Contact) (*models.Lead, error)
	RemoveContact(ctx context.Context, leadID, contactID primitive.ObjectID) (*models.Lead, error)
}

type UserRepository interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindAdmin(ctx context.Context) (*models.User, error)
	// UserExists reports whether any user already has this email or this number.
	UserExists(ctx context.Context, email, number string) (bool, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	DeleteUsersByRestaurant(ctx context.Context, restaurantID primitive.ObjectID) (int64, error)
}

type OrderRepository interface {
	InsertOrder(ctx context.Context, order *models.Order) error
	FindOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListOrders(ctx context.Context, restaurantID primitive.ObjectID, status models.OrderStatus) ([]models.Order, error)
	// UpdateOrderStatus moves an order from one status to another. It returns
	// ErrNotFound when the order is absent or no longer in status from.
	UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error)
}

type InteractionRepository interface {
	InsertInteraction(ctx context.Context, interaction *models.Interaction) error
	RecentInteractions(ctx context.Context, restaurantID primitive.ObjectID, limit int64) ([]models.Interaction, error)
}

type CallRepository interface {
	InsertCall(ctx context.Context, call *models.Call) error
}

// Store is everything the HTTP layer and the metrics engine persist or query.
type Store interface {
	metrics.Repository
	LeadRepository
	UserRepository
	OrderRepository
	InteractionRepository
	CallRepository
	Close(ctx context.Context) error
}
