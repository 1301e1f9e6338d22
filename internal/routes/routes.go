package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"checkin_logistica/internal/middleware"
)

func SetupRouter() *gin.Engine {
	r := gin.New()

	// Middleware must be in place before the routes are registered; gin
	// snapshots each route's handler chain at registration time.
	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger())
	r.Use(middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	AccountRoutes(api)
	CheckinRoutes(api)

	return r
}
