package controllers

import (
	"context"
	"errors"
	"net/http"

	"kam-backend/database"
	"kam-backend/helpers"
	"kam-backend/models"

	"github.com/gin-gonic/gin"
)

type PortalLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type PortalLogoutRequest struct {
	Username string `json:"username" validate:"required"`
}

// portalUser finds the lead user behind a client-portal username.
func (ctl *Controller) portalUser(ctx context.Context, username string) (*models.User, error) {
	user, err := ctl.store.FindUserByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleLead || user.RestaurantID == nil {
		return nil, notFound("Restaurant not found")
	}
	return user, nil
}

// PortalLogin signs in a restaurant's own lead user by username.
func (ctl *Controller) PortalLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		var req PortalLoginRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		user, err := ctl.portalUser(ctx, req.Username)
		if err != nil {
			respondError(c, err)
			return
		}
		if !helpers.VerifyPassword(req.Password, user.Password) {
			respondError(c, unauthorized("Invalid password"))
			return
		}
		token, err := ctl.issueToken(ctx, user)
		if err != nil {
			respondError(c, err)
			return
		}
		lead, err := ctl.requireLead(ctx, *user.RestaurantID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"token":   token,
			"lead": gin.H{
				"id":       lead.ID,
				"name":     lead.Name,
				"username": user.Username,
				"status":   lead.Status,
			},
		})
	}
}

func (ctl *Controller) PortalLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		var req PortalLogoutRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		user, err := ctl.portalUser(ctx, req.Username)
		if err != nil {
			respondError(c, err)
			return
		}
		lead, err := ctl.markInactive(ctx, user)
		if err != nil {
			respondError(c, err)
			return
		}
		if lead == nil {
			respondError(c, notFound("Restaurant not found"))
			return
		}
		if err := ctl.revokePresentedToken(c); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logout successful", "restaurant": lead})
	}
}
