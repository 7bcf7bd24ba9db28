package routes

import (
	"kam-backend/controllers"
	"kam-backend/middleware"
	"kam-backend/models"

	"github.com/gin-gonic/gin"
)

func InteractionRoutes(incomingRoutes *gin.RouterGroup, ctl *controllers.Controller, auth gin.HandlerFunc) {
	interactions := incomingRoutes.Group("/interactions", auth,
		middleware.RoleAuthorization(models.RolesWith(models.Role.CanLogInteractions)...))
	interactions.POST("", ctl.AddInteraction())
	interactions.GET("/:restaurantId", ctl.GetInteractions())
}

func CallRoutes(incomingRoutes *gin.RouterGroup, ctl *controllers.Controller, auth gin.HandlerFunc) {
	calls := incomingRoutes.Group("/calls", auth, middleware.RoleAuthorization(models.RolesWith(models.Role.CanSimulateCalls)...))
	calls.POST("/simulate-call", ctl.SimulateCall())
}
