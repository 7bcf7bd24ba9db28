package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the capability tag carried by every user and embedded in session tokens.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleLead    Role = "lead"
	RoleStaff   Role = "staff"
)

var Roles = []Role{RoleAdmin, RoleManager, RoleLead, RoleStaff}

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RolesWith lists the roles for which can reports true, in Roles order.
func RolesWith(can func(Role) bool) []Role {
	var roles []Role
	for _, r := range Roles {
		if can(r) {
			roles = append(roles, r)
		}
	}
	return roles
}

func (r Role) CanManageLeads() bool {
	return r == RoleAdmin
}

func (r Role) CanLogInteractions() bool {
	return r == RoleAdmin || r == RoleLead || r == RoleManager
}

func (r Role) CanSimulateCalls() bool {
	return r == RoleAdmin || r == RoleLead
}

func (r Role) CanHandleOrders() bool {
	return r.Valid()
}

// RoleFromContact maps a free-text contact role ("Owner", "Store Manager") to a user role.
func RoleFromContact(contactRole string) Role {
	if strings.Contains(strings.ToLower(contactRole), "manager") {
		return RoleManager
	}
	return RoleStaff
}

type User struct {
	ID           primitive.ObjectID  `json:"_id" bson:"_id"`
	Name         string              `json:"name" bson:"name" validate:"required,max=100"`
	Username     string              `json:"username,omitempty" bson:"username,omitempty"`
	Email        string              `json:"email" bson:"email" validate:"required,email"`
	Number       string              `json:"number" bson:"number" validate:"required,len=10,numeric"`
	Role         Role                `json:"role" bson:"role" validate:"required,eq=admin|eq=manager|eq=lead|eq=staff"`
	RestaurantID *primitive.ObjectID `json:"restaurantId,omitempty" bson:"restaurantId,omitempty"`
	Password     string              `json:"-" bson:"password"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Credentials are handed out exactly once, in the response that created them.
type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
