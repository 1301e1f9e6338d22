package routes

import (
	"github.com/gin-gonic/gin"

	"checkin_logistica/internal/controllers"
	"checkin_logistica/internal/middleware"
	"checkin_logistica/internal/models"
)

func AccountRoutes(r *gin.RouterGroup) {
	accounts := r.Group("/accounts")
	{
		accounts.POST("/signup", controllers.SignupUser)
		accounts.POST("/login", controllers.LoginUser)
	}

	authed := r.Group("/accounts")
	authed.Use(middleware.RequireAuth())
	{
		authed.POST("/logout", controllers.LogoutUser)
		authed.GET("/test-token", controllers.TestToken)
		authed.GET("/user/:id", controllers.GetUser)
		authed.PUT("/edit-user", controllers.EditUser)
	}

	// Administration of accounts belongs to the logistics team.
	admin := r.Group("/accounts")
	admin.Use(middleware.RequireRole(models.RoleLogistica))
	{
		admin.GET("/list-users", controllers.ListUsers)
		admin.POST("/activate/:id", controllers.ActivateUser)
		admin.POST("/deactivate/:id", controllers.DeactivateUser)
		admin.PUT("/edit-user-admin/:id", controllers.EditUserAdmin)
	}
}
