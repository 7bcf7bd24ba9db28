package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"kam-backend/database"
	"kam-backend/helpers"
	"kam-backend/middleware"
	"kam-backend/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RegisterRequest struct {
	Name     string      `json:"name" validate:"required,max=100"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"required,eq=admin|eq=manager|eq=lead|eq=staff"`
	Number   string      `json:"number" validate:"required,len=10,numeric"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LogoutRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// userView is the public shape of a user; it never carries the password hash.
type userView struct {
	ID           primitive.ObjectID  `json:"id"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Number       string              `json:"number,omitempty"`
	Role         models.Role         `json:"role,omitempty"`
	RestaurantID *primitive.ObjectID `json:"restaurantId,omitempty"`
}

func viewOf(user *models.User) userView {
	return userView{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Number:       user.Number,
		Role:         user.Role,
		RestaurantID: user.RestaurantID,
	}
}

func (ctl *Controller) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		var req RegisterRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		if req.Role == models.RoleAdmin {
			_, err := ctl.store.FindAdmin(ctx)
			if err == nil {
				respondError(c, conflict("An admin user already exists"))
				return
			}
			if !errors.Is(err, database.ErrNotFound) {
				respondError(c, err)
				return
			}
		}
		if _, err := ctl.store.FindUserByEmail(ctx, req.Email); err == nil {
			respondError(c, conflict("Email already in use."))
			return
		} else if !errors.Is(err, database.ErrNotFound) {
			respondError(c, err)
			return
		}

		hash, err := helpers.HashPassword(req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		now := ctl.timestamp()
		user := models.User{
			ID:        primitive.NewObjectID(),
			Name:      req.Name,
			Email:     req.Email,
			Number:    req.Number,
			Role:      req.Role,
			Password:  hash,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := ctl.store.InsertUser(ctx, &user); err != nil {
			switch {
			case errors.Is(err, database.ErrAdminExists):
				err = conflict("An admin user already exists")
			case errors.Is(err, database.ErrDuplicate):
				err = conflict("Email or phone number already in use.")
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": "User registered successfully",
			"user":    gin.H{"id": user.ID, "name": user.Name, "email": user.Email},
		})
	}
}

// issueToken signs a session for user and, for lead users, marks their restaurant Active.
func (ctl *Controller) issueToken(ctx context.Context, user *models.User) (string, error) {
	if user.Role == models.RoleLead && user.RestaurantID != nil {
		loginAt := ctl.timestamp()
		_, err := ctl.store.SetLeadStatus(ctx, *user.RestaurantID, models.LeadStatusActive, &loginAt)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			return "", err
		}
	}
	return helpers.GenerateToken(helpers.DetailsFor(user), ctl.auth.Secret, ctl.auth.TokenTTL)
}

// markInactive flips the restaurant of a lead user to Inactive. Other roles are left alone.
func (ctl *Controller) markInactive(ctx context.Context, user *models.User) (*models.Lead, error) {
	if user.Role != models.RoleLead || user.RestaurantID == nil {
		return nil, nil
	}
	lead, err := ctl.store.SetLeadStatus(ctx, *user.RestaurantID, models.LeadStatusInactive, nil)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	log.Printf("lead %s marked Inactive", user.RestaurantID.Hex())
	return lead, nil
}

// revokePresentedToken blacklists the caller's bearer token, if any, until it expires.
func (ctl *Controller) revokePresentedToken(c *gin.Context) error {
	if ctl.revoker == nil {
		return nil
	}
	token := middleware.BearerToken(c.Request)
	if token == "" {
		return nil
	}
	claims, err := helpers.ValidateToken(token, ctl.auth.Secret)
	if err != nil {
		// expired or forged tokens need no revocation
		return nil
	}
	return ctl.revoker.Revoke(c.Request.Context(), token, helpers.TokenLifetime(claims))
}

func (ctl *Controller) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		var req LoginRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, badRequest("Email and password are required."))
			return
		}
		user, err := ctl.store.FindUserByEmail(ctx, req.Email)
		if errors.Is(err, database.ErrNotFound) {
			respondError(c, unauthorized("Invalid email or password."))
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		if !helpers.VerifyPassword(req.Password, user.Password) {
			respondError(c, unauthorized("Invalid email or password."))
			return
		}
		token, err := ctl.issueToken(ctx, user)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"token":   token,
			"user":    viewOf(user),
		})
	}
}

func (ctl *Controller) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		var req LogoutRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, badRequest("User ID is required for logout."))
			return
		}
		userID, err := parseID(req.UserID, "user id")
		if err != nil {
			respondError(c, err)
			return
		}
		user, err := ctl.store.FindUserByID(ctx, userID)
		if errors.Is(err, database.ErrNotFound) {
			respondError(c, notFound("User not found."))
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		if _, err := ctl.markInactive(ctx, user); err != nil {
			respondError(c, err)
			return
		}
		if err := ctl.revokePresentedToken(c); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logout successful."})
	}
}

func (ctl *Controller) GetAdminUserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		admin, err := ctl.store.FindAdmin(ctx)
		if errors.Is(err, database.ErrNotFound) {
			respondError(c, notFound("Admin user not found"))
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"adminUserId": admin.ID})
	}
}

func (ctl *Controller) GetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, err := parseID(c.Param("id"), "user id")
		if err != nil {
			respondError(c, err)
			return
		}
		user, err := ctl.store.FindUserByID(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			respondError(c, notFound("User not found"))
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, viewOf(user))
	}
}
