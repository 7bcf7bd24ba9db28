package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LeadStatus string

const (
	LeadStatusNew      LeadStatus = "New"
	LeadStatusActive   LeadStatus = "Active"
	LeadStatusInactive LeadStatus = "Inactive"
)

// DefaultNotificationFrequency is the number of days between Regular-Update interactions.
const DefaultNotificationFrequency = 7

type Contact struct {
	ID     primitive.ObjectID  `json:"_id" bson:"_id"`
	Name   string              `json:"name" bson:"name" validate:"required"`
	Role   string              `json:"role" bson:"role" validate:"required"`
	Phone  string              `json:"phone" bson:"phone" validate:"required"`
	Email  string              `json:"email" bson:"email" validate:"required,email"`
	UserID *primitive.ObjectID `json:"userId,omitempty" bson:"userId,omitempty"`
}

// IsManagerial reports whether the contact gets its own login.
func (c Contact) IsManagerial() bool {
	return RoleFromContact(c.Role) == RoleManager
}

// Lead is a restaurant account.
type Lead struct {
	ID                    primitive.ObjectID  `json:"_id" bson:"_id"`
	Name                  string              `json:"name" bson:"name" validate:"required,min=2,max=200"`
	Address               string              `json:"address" bson:"address"`
	ContactNumber         string              `json:"contactNumber" bson:"contactNumber" validate:"required"`
	Status                LeadStatus          `json:"status" bson:"status" validate:"required,eq=New|eq=Active|eq=Inactive"`
	AssignedKAM           string              `json:"assignedKAM" bson:"assignedKAM"`
	NotificationFrequency int                 `json:"notificationFrequency" bson:"notificationFrequency" validate:"min=1"`
	Contacts              []Contact           `json:"contacts" bson:"contacts"`
	LeadUser              *primitive.ObjectID `json:"leadUser,omitempty" bson:"leadUser,omitempty"`
	LastLoginTime         *time.Time          `json:"lastLoginTime,omitempty" bson:"lastLoginTime,omitempty"`
	CreatedAt             time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Frequency returns the notification frequency in days, falling back to the default
// for documents written before the field existed.
func (l Lead) Frequency() int {
	if l.NotificationFrequency < 1 {
		return DefaultNotificationFrequency
	}
	return l.NotificationFrequency
}

// LeadUpdate carries the mutable lead fields; nil means unchanged.
type LeadUpdate struct {
	Name                  *string     `json:"name" validate:"omitempty,min=2,max=200"`
	Address               *string     `json:"address"`
	ContactNumber         *string     `json:"contactNumber"`
	Status                *LeadStatus `json:"status" validate:"omitempty,eq=New|eq=Active|eq=Inactive"`
	AssignedKAM           *string     `json:"assignedKAM"`
	NotificationFrequency *int        `json:"notificationFrequency" validate:"omitempty,min=1"`
}

func (u LeadUpdate) Empty() bool {
	return u.Name == nil && u.Address == nil && u.ContactNumber == nil &&
		u.Status == nil && u.AssignedKAM == nil && u.NotificationFrequency == nil
}

// Apply copies the set fields onto lead.
func (u LeadUpdate) Apply(lead *Lead) {
	if u.Name != nil {
		lead.Name = *u.Name
	}
	if u.Address != nil {
		lead.Address = *u.Address
	}
	if u.ContactNumber != nil {
		lead.ContactNumber = *u.ContactNumber
	}
	if u.Status != nil {
		lead.Status = *u.Status
	}
	if u.AssignedKAM != nil {
		lead.AssignedKAM = *u.AssignedKAM
	}
	if u.NotificationFrequency != nil {
		lead.NotificationFrequency = *u.NotificationFrequency
	}
}

type DashboardStats struct {
	TotalLeads    int64  `json:"totalLeads"`
	NewLeads      int64  `json:"newLeads"`
	ActiveLeads   int64  `json:"activeLeads"`
	InactiveLeads int64  `json:"inactiveLeads"`
	RecentLeads   []Lead `json:"recentLeads"`
}
