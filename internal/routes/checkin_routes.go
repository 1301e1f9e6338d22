package routes

import (
	"github.com/gin-gonic/gin"

	"checkin_logistica/internal/controllers"
	"checkin_logistica/internal/middleware"
	"checkin_logistica/internal/models"
)

func CheckinRoutes(r *gin.RouterGroup) {
	checkins := r.Group("/checkins")
	checkins.Use(middleware.RequireAuth())
	{
		checkins.GET("", controllers.ListCheckins)
		checkins.GET("/:id", controllers.GetCheckin)
	}

	motorista := r.Group("/checkins")
	motorista.Use(middleware.RequireRole(models.RoleMotorista))
	{
		motorista.POST("/criar", controllers.CreateCheckin)
		motorista.POST("/:id/upload-arquivo", controllers.UploadArquivos)
	}

	logistica := r.Group("/checkins")
	logistica.Use(middleware.RequireRole(models.RoleLogistica))
	{
		logistica.GET("/pendentes", controllers.ListCheckinsPendentes)
		logistica.POST("/:id/aprovar", controllers.AprovarCheckin)
		logistica.POST("/:id/rejeitar", controllers.RejeitarCheckin)
	}
}
