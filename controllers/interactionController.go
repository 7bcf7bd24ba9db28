package controllers

import (
	"context"
	"net/http"

	"kam-backend/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const recentInteractionsLimit = 10

type InteractionRequest struct {
	RestaurantID string                 `json:"restaurantId" validate:"required"`
	Type         models.InteractionType `json:"type" validate:"required,eq=Call|eq=Email|eq=Regular-Update"`
	From         string                 `json:"from" validate:"required"`
	To           string                 `json:"to" validate:"required"`
	About        string                 `json:"about" validate:"required"`
}

func (ctl *Controller) AddInteraction() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		var req InteractionRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err)
			return
		}
		ids := make([]primitive.ObjectID, 3)
		for i, field := range []struct{ value, name string }{
			{req.RestaurantID, "restaurant id"},
			{req.From, "from user id"},
			{req.To, "to user id"},
		} {
			id, err := parseID(field.value, field.name)
			if err != nil {
				respondError(c, err)
				return
			}
			ids[i] = id
		}
		if _, err := ctl.requireLead(ctx, ids[0]); err != nil {
			respondError(c, err)
			return
		}

		interaction := models.Interaction{
			ID:           primitive.NewObjectID(),
			RestaurantID: ids[0],
			Type:         req.Type,
			From:         ids[1],
			To:           ids[2],
			About:        req.About,
			Time:         ctl.timestamp(),
		}
		if err := ctl.store.InsertInteraction(ctx, &interaction); err != nil {
			respondError(c, err)
			return
		}
		ctl.hub.Broadcast(EventNewInteraction, interaction)
		c.JSON(http.StatusCreated, interaction)
	}
}

func (ctl *Controller) GetInteractions() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		restaurantID, err := parseID(c.Param("restaurantId"), "restaurant id")
		if err != nil {
			respondError(c, err)
			return
		}
		interactions, err := ctl.store.RecentInteractions(ctx, restaurantID, recentInteractionsLimit)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(interactions) == 0 {
			respondError(c, notFound("No interactions found for the given restaurant."))
			return
		}
		c.JSON(http.StatusOK, interactions)
	}
}
