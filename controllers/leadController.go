package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"kam-backend/database"
	"kam-backend/helpers"
	"kam-backend/metrics"
	"kam-backend/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const recentLeadsLimit = 5

type CreateLeadRequest struct {
	RestaurantName        string            `json:"restaurantName" validate:"required,min=2,max=200"`
	Address               string            `json:"address"`
	ContactNumber         string            `json:"contactNumber"`
	AssignedKAM           string            `json:"assignedKAM"`
	Status                models.LeadStatus `json:"status" validate:"omitempty,eq=New|eq=Active|eq=Inactive"`
	NotificationFrequency int               `json:"notificationFrequency" validate:"min=0"`
	LeadName              string            `json:"leadName" validate:"required,max=100"`
	Email                 string            `json:"email" validate:"required,email"`
	Number                string            `json:"number" validate:"required,len=10,numeric"`
}

type ContactRequest struct {
	Name  string `json:"name" validate:"required"`
	Role  string `json:"role" validate:"required"`
	Phone string `json:"phone" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// uniqueUsername derives a username from name, suffixing a counter while it is taken.
func (ctl *Controller) uniqueUsername(ctx context.Context, name string) (string, error) {
	base := helpers.Username(name)
	if base == "" {
		base = "user"
	}
	candidate := base
	for i := 2; ; i++ {
		_, err := ctl.store.FindUserByUsername(ctx, candidate)
		if errors.Is(err, database.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
}

// provisionUser creates a login for a lead or a managerial contact and returns
// its plaintext credentials. The email/number pair must be unused.
func (ctl *Controller) provisionUser(ctx context.Context, name, email, number string, role models.Role, restaurantID primitive.ObjectID) (*models.User, *models.Credentials, error) {
	password, err := helpers.GeneratePassword(helpers.GeneratedPasswordLength)
	if err != nil {
		return nil, nil, err
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, nil, err
	}
	username, err := ctl.uniqueUsername(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	now := ctl.timestamp()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Username:     username,
		Email:        email,
		Number:       number,
		Role:         role,
		RestaurantID: &restaurantID,
		Password:     hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := ctl.store.InsertUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, nil, conflict("A user with this email or phone number already exists")
		}
		return nil, nil, err
	}
	return user, &models.Credentials{Username: username, Email: email, Password: password}, nil
}

func (ctl *Controller) ensureUnusedIdentity(ctx context.Context, email, number string) error {
	exists, err := ctl.store.UserExists(ctx, email, number)
	if err != nil {
		return err
	}
	if exists {
		return conflict("A user with this email or phone number already exists")
	}
	return nil
}

func (ctl *Controller) CreateLead() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		var req CreateLeadRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		if err := ctl.ensureUnusedIdentity(ctx, req.Email, req.Number); err != nil {
			respondError(c, err)
			return
		}

		now := ctl.timestamp()
		lead := models.Lead{
			ID:                    primitive.NewObjectID(),
			Name:                  req.RestaurantName,
			Address:               req.Address,
			ContactNumber:         req.ContactNumber,
			Status:                req.Status,
			AssignedKAM:           req.AssignedKAM,
			NotificationFrequency: req.NotificationFrequency,
			Contacts:              []models.Contact{},
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if lead.ContactNumber == "" {
			lead.ContactNumber = req.Number
		}
		if lead.Status == "" {
			lead.Status = models.LeadStatusNew
		}
		if lead.NotificationFrequency == 0 {
			lead.NotificationFrequency = models.DefaultNotificationFrequency
		}
		if err := validate.Struct(&lead); err != nil {
			respondError(c, badRequest("%v", err))
			return
		}
		if err := ctl.store.InsertLead(ctx, &lead); err != nil {
			respondError(c, err)
			return
		}

		user, credentials, err := ctl.provisionUser(ctx, req.LeadName, req.Email, req.Number, models.RoleLead, lead.ID)
		if err != nil {
			ctl.rollbackLead(ctx, lead.ID, nil)
			respondError(c, err)
			return
		}
		if err := ctl.store.SetLeadUser(ctx, lead.ID, user.ID); err != nil {
			ctl.rollbackLead(ctx, lead.ID, &user.ID)
			respondError(c, err)
			return
		}
		lead.LeadUser = &user.ID

		c.JSON(http.StatusCreated, gin.H{
			"message":     "Lead created successfully",
			"lead":        lead,
			"credentials": credentials,
		})
	}
}

// rollbackLead undoes a partially created lead so no lead is left without its user.
func (ctl *Controller) rollbackLead(ctx context.Context, leadID primitive.ObjectID, userID *primitive.ObjectID) {
	if userID != nil {
		if err := ctl.store.DeleteUser(ctx, *userID); err != nil && !errors.Is(err, database.ErrNotFound) {
			log.Printf("rollback: delete user %s: %v", userID.Hex(), err)
		}
	}
	if err := ctl.store.DeleteLead(ctx, leadID); err != nil && !errors.Is(err, database.ErrNotFound) {
		log.Printf("rollback: delete lead %s: %v", leadID.Hex(), err)
	}
}

func (ctl *Controller) GetLeads() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		key, err := metrics.ParseSortKey(c.Query("sortBy"))
		if err != nil {
			respondError(c, badRequest("%v", err))
			return
		}
		leads, err := ctl.engine.EnrichLeads(ctx, key)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, leads)
	}
}

func (ctl *Controller) GetLead() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, err := parseID(c.Param("id"), "lead id")
		if err != nil {
			respondError(c, err)
			return
		}
		lead, err := ctl.requireLead(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lead)
	}
}

func (ctl *Controller) UpdateLead() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, err := parseID(c.Param("id"), "lead id")
		if err != nil {
			respondError(c, err)
			return
		}
		var update models.LeadUpdate
		if err := bindJSON(c, &update); err != nil {
			respondError(c, err)
			return
		}
		if update.Empty() {
			respondError(c, badRequest("No updatable fields provided"))
			return
		}
		if update.Name != nil && *update.Name == "" {
			respondError(c, badRequest("Lead name cannot be empty"))
			return
		}
		lead, err := ctl.store.UpdateLead(ctx, id, update)
		if errors.Is(err, database.ErrNotFound) {
			err = notFound("Lead not found")
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lead)
	}
}

func (ctl *Controller) DeleteLead() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, err := parseID(c.Param("id"), "lead id")
		if err != nil {
			respondError(c, err)
			return
		}
		if _, err := ctl.requireLead(ctx, id); err != nil {
			respondError(c, err)
			return
		}
		if err := ctl.store.DeleteLead(ctx, id); err != nil {
			respondError(c, err)
			return
		}
		deleted, err := ctl.store.DeleteUsersByRestaurant(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Lead deleted successfully", "deletedUsers": deleted})
	}
}

func (ctl *Controller) GetDashboardStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		var stats models.DashboardStats
		counts := []struct {
			status models.LeadStatus
			dst    *int64
		}{
			{"", &stats.TotalLeads},
			{models.LeadStatusNew, &stats.NewLeads},
			{models.LeadStatusActive, &stats.ActiveLeads},
			{models.LeadStatusInactive, &stats.InactiveLeads},
		}
		for _, cnt := range counts {
			n, err := ctl.store.CountLeads(ctx, cnt.status)
			if err != nil {
				respondError(c, err)
				return
			}
			*cnt.dst = n
		}
		recent, err := ctl.store.RecentLeads(ctx, recentLeadsLimit)
		if err != nil {
			respondError(c, err)
			return
		}
		stats.RecentLeads = recent
		c.JSON(http.StatusOK, stats)
	}
}

func (ctl *Controller) GetLeadsForInteraction() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		due, err := ctl.engine.DueLeads(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": due})
	}
}

func (ctl *Controller) GetNextInteractionDue() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, err := parseID(c.Param("id"), "lead id")
		if err != nil {
			respondError(c, err)
			return
		}
		next, err := ctl.engine.NextDue(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"nextInteractionDue":  next,
			"requiresInteraction": metrics.IsDue(ctl.engine.Now(), next),
		}})
	}
}

func (ctl *Controller) GetPerformanceMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		rows, err := ctl.engine.PerformanceMatrix(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func (ctl *Controller) GetLeadStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, err := parseID(c.Param("id"), "lead id")
		if err != nil {
			respondError(c, err)
			return
		}
		stats, err := ctl.engine.LeadStats(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func (ctl *Controller) AddContact() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		leadID, err := parseID(c.Param("id"), "lead id")
		if err != nil {
			respondError(c, err)
			return
		}
		if _, err := ctl.requireLead(ctx, leadID); err != nil {
			respondError(c, err)
			return
		}
		var req ContactRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, badRequest("Invalid contact data: %v", err))
			return
		}
		if err := ctl.ensureUnusedIdentity(ctx, req.Email, req.Phone); err != nil {
			respondError(c, err)
			return
		}

		contact := models.Contact{
			ID:    primitive.NewObjectID(),
			Name:  req.Name,
			Role:  req.Role,
			Phone: req.Phone,
			Email: req.Email,
		}
		var credentials *models.Credentials
		if contact.IsManagerial() {
			user, creds, err := ctl.provisionUser(ctx, req.Name, req.Email, req.Phone, models.RoleManager, leadID)
			if err != nil {
				respondError(c, err)
				return
			}
			contact.UserID = &user.ID
			credentials = creds
		}

		lead, err := ctl.store.AddContact(ctx, leadID, contact)
		if err != nil {
			if contact.UserID != nil {
				if derr := ctl.store.DeleteUser(ctx, *contact.UserID); derr != nil {
					log.Printf("rollback: delete contact user %s: %v", contact.UserID.Hex(), derr)
				}
			}
			if errors.Is(err, database.ErrNotFound) {
				err = notFound("Lead not found")
			}
			respondError(c, err)
			return
		}

		response := gin.H{"message": "Contact added successfully", "lead": lead, "contact": contact}
		if credentials != nil {
			response["credentials"] = credentials
		}
		c.JSON(http.StatusCreated, response)
	}
}

func (ctl *Controller) DeleteContact() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		leadID, err := parseID(c.Param("id"), "lead id")
		if err != nil {
			respondError(c, err)
			return
		}
		contactID, err := parseID(c.Param("contactId"), "contact id")
		if err != nil {
			respondError(c, err)
			return
		}
		lead, err := ctl.requireLead(ctx, leadID)
		if err != nil {
			respondError(c, err)
			return
		}
		var contact *models.Contact
		for i := range lead.Contacts {
			if lead.Contacts[i].ID == contactID {
				contact = &lead.Contacts[i]
				break
			}
		}
		if contact == nil {
			respondError(c, notFound("Contact not found"))
			return
		}

		// the login goes first so a failure leaves the contact and its user intact
		if contact.UserID != nil {
			if err := ctl.store.DeleteUser(ctx, *contact.UserID); err != nil && !errors.Is(err, database.ErrNotFound) {
				respondError(c, err)
				return
			}
		}
		updated, err := ctl.store.RemoveContact(ctx, leadID, contactID)
		if errors.Is(err, database.ErrNotFound) {
			err = notFound("Contact not found")
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}
