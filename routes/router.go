package routes

import (
	"net/http"
	"time"

	"kam-backend/controllers"
	"kam-backend/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries everything NewRouter mounts.
type RouterConfig struct {
	Controller   *controllers.Controller
	Hub          *controllers.Hub
	JWTSecret    string
	Revoker      middleware.Revoker
	LoginLimiter *middleware.RateLimiter
	Registry     *prometheus.Registry
	CORSOrigins  []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"POST", "GET", "PATCH", "DELETE", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	if cfg.Registry != nil {
		router.Use(middleware.NewHTTPMetrics(cfg.Registry).Middleware())
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	loginLimit := func(c *gin.Context) { c.Next() }
	if cfg.LoginLimiter != nil {
		loginLimit = cfg.LoginLimiter.Middleware()
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Hub != nil {
		router.GET("/ws", cfg.Hub.HandleWebSocket())
	}
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Page not found"})
	})

	auth := middleware.Authentication(cfg.JWTSecret, cfg.Revoker)
	api := router.Group("/api")
	UserRoutes(api, cfg.Controller, loginLimit)
	AuthRoutes(api, cfg.Controller, loginLimit)
	LeadRoutes(api, cfg.Controller, auth)
	OrderRoutes(api, cfg.Controller, auth)
	InteractionRoutes(api, cfg.Controller, auth)
	CallRoutes(api, cfg.Controller, auth)
	return router
}
