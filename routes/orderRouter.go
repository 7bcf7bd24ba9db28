package routes

import (
	"kam-backend/controllers"
	"kam-backend/middleware"
	"kam-backend/models"

	"github.com/gin-gonic/gin"
)

func OrderRoutes(incomingRoutes *gin.RouterGroup, ctl *controllers.Controller, auth gin.HandlerFunc) {
	orders := incomingRoutes.Group("/orders", auth, middleware.RoleAuthorization(models.RolesWith(models.Role.CanHandleOrders)...))
	orders.POST("/simulate-order", ctl.SimulateOrder())
	orders.GET("/pending", ctl.PendingOrders())
	orders.PUT("/:id/status", ctl.UpdateOrderStatus())
	orders.PATCH("/:id/complete", ctl.CompleteOrder())
}
