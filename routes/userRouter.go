package routes

import (
	"kam-backend/controllers"

	"github.com/gin-gonic/gin"
)

// UserRoutes are public; login is throttled by loginLimit.
func UserRoutes(incomingRoutes *gin.RouterGroup, ctl *controllers.Controller, loginLimit gin.HandlerFunc) {
	users := incomingRoutes.Group("/users")
	users.POST("/register", ctl.Register())
	users.POST("/login", loginLimit, ctl.Login())
	users.POST("/logout", ctl.Logout())
	users.GET("/admin-id", ctl.GetAdminUserID())
	users.GET("/:id", ctl.GetUser())
}

// AuthRoutes serve the client portal, where restaurants sign in by username.
func AuthRoutes(incomingRoutes *gin.RouterGroup, ctl *controllers.Controller, loginLimit gin.HandlerFunc) {
	auth := incomingRoutes.Group("/auth")
	auth.POST("/login", loginLimit, ctl.PortalLogin())
	auth.POST("/logout", ctl.PortalLogout())
}
