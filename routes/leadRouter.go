package routes

import (
	"kam-backend/controllers"
	"kam-backend/middleware"
	"kam-backend/models"

	"github.com/gin-gonic/gin"
)

func LeadRoutes(incomingRoutes *gin.RouterGroup, ctl *controllers.Controller, auth gin.HandlerFunc) {
	leads := incomingRoutes.Group("/leads", auth, middleware.RoleAuthorization(models.RolesWith(models.Role.CanManageLeads)...))
	leads.GET("/dashboard", ctl.GetDashboardStats())
	leads.GET("/interaction-due", ctl.GetLeadsForInteraction())
	leads.GET("/interaction-due/:id", ctl.GetNextInteractionDue())
	leads.GET("/performance-matrix", ctl.GetPerformanceMetrics())
	leads.GET("", ctl.GetLeads())
	leads.POST("", ctl.CreateLead())
	leads.GET("/:id", ctl.GetLead())
	leads.PUT("/:id", ctl.UpdateLead())
	leads.DELETE("/:id", ctl.DeleteLead())
	leads.POST("/:id/contacts", ctl.AddContact())
	leads.DELETE("/:id/contacts/:contactId", ctl.DeleteContact())
	leads.GET("/:id/stats", ctl.GetLeadStats())
}
