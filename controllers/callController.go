package controllers

import (
	"context"
	"net/http"

	"kam-backend/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultCallDuration = 60
	defaultCallPurpose  = "Follow-up"
)

type SimulateCallRequest struct {
	RestaurantID string `json:"restaurantId" validate:"required"`
	Duration     int    `json:"duration" validate:"min=0"`
	Purpose      string `json:"purpose"`
	Notes        string `json:"notes"`
}

// SimulateCall records a legacy Call; callers may omit everything but the restaurant.
func (ctl *Controller) SimulateCall() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		var req SimulateCallRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		restaurantID, err := parseID(req.RestaurantID, "restaurant id")
		if err != nil {
			respondError(c, err)
			return
		}
		if _, err := ctl.requireLead(ctx, restaurantID); err != nil {
			respondError(c, err)
			return
		}

		call := models.Call{
			ID:           primitive.NewObjectID(),
			RestaurantID: restaurantID,
			Time:         ctl.timestamp(),
			Duration:     req.Duration,
			Purpose:      req.Purpose,
			Notes:        req.Notes,
		}
		if call.Duration == 0 {
			call.Duration = defaultCallDuration
		}
		if call.Purpose == "" {
			call.Purpose = defaultCallPurpose
		}
		if err := ctl.store.InsertCall(ctx, &call); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Call simulated successfully", "call": call})
	}
}
