package controllers

import (
	"context"
	"errors"
	"net/http"

	"kam-backend/database"
	"kam-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SimulateOrderRequest struct {
	RestaurantID string             `json:"restaurantId" validate:"required"`
	Items        []models.OrderItem `json:"items" validate:"required,min=1,dive"`
}

type OrderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required,eq=Completed|eq=Cancelled"`
}

func newTransactionID() string {
	return "TXN-" + uuid.NewString()
}

func (ctl *Controller) SimulateOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		var req SimulateOrderRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, badRequest("Restaurant ID and items are required: %v", err))
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

		now := ctl.timestamp()
		order := models.Order{
			ID:            primitive.NewObjectID(),
			RestaurantID:  restaurantID,
			TransactionID: newTransactionID(),
			Amount:        models.Total(req.Items),
			Status:        models.OrderStatusPending,
			Items:         req.Items,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := ctl.store.InsertOrder(ctx, &order); err != nil {
			respondError(c, err)
			return
		}
		ctl.hub.Broadcast(EventNewOrder, order)
		c.JSON(http.StatusCreated, gin.H{"message": "Order simulated successfully", "order": order})
	}
}

func (ctl *Controller) PendingOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if c.Query("restaurantId") == "" {
			respondError(c, badRequest("Restaurant ID is required to fetch pending orders."))
			return
		}
		restaurantID, err := parseID(c.Query("restaurantId"), "restaurant id")
		if err != nil {
			respondError(c, err)
			return
		}
		orders, err := ctl.store.ListOrders(ctx, restaurantID, models.OrderStatusPending)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// settleOrder moves a pending order to status, rejecting orders that are already settled.
func (ctl *Controller) settleOrder(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	current, err := ctl.store.FindOrderByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(status) {
		return nil, conflict("Order is already " + string(current.Status))
	}
	order, err := ctl.store.UpdateOrderStatus(ctx, id, models.OrderStatusPending, status)
	if errors.Is(err, database.ErrNotFound) {
		// settled by a concurrent request between the read and the update
		return nil, conflict("Order is no longer Pending")
	}
	if err != nil {
		return nil, err
	}
	ctl.hub.Broadcast(EventOrderStatus, order)
	return order, nil
}

func (ctl *Controller) UpdateOrderStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, err := parseID(c.Param("id"), "order id")
		if err != nil {
			respondError(c, err)
			return
		}
		var req OrderStatusRequest
		if err := bindJSON(c, &req); err != nil {
			respondError(c, badRequest("Status must be Completed or Cancelled"))
			return
		}
		order, err := ctl.settleOrder(ctx, id, req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": order})
	}
}

// CompleteOrder serves the older PATCH /orders/:id/complete route.
func (ctl *Controller) CompleteOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, err := parseID(c.Param("id"), "order id")
		if err != nil {
			respondError(c, err)
			return
		}
		order, err := ctl.settleOrder(ctx, id, models.OrderStatusCompleted)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Order marked as complete", "order": order})
	}
}
