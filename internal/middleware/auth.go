package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"checkin_logistica/internal/config"
	"checkin_logistica/internal/models"
)

const userContextKey = "current_user"

// authenticate resolves the opaque bearer token against the token table and
// loads its user into the request context. Tokens of inactive users are
// rejected the same way DRF-style token auth does. Aborts the request on
// failure; never advances the handler chain itself.
func authenticate(c *gin.Context) (models.User, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
		return models.User{}, false
	}

	key := strings.TrimPrefix(authHeader, "Bearer ")
	var token models.Token
	if err := config.DB.Preload("User").Where("key = ?", key).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		}
		return models.User{}, false
	}

	if !token.User.Ativo {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Usuário inativo"})
		return models.User{}, false
	}

	c.Set(userContextKey, token.User)
	c.Set("user_id", token.User.ID)
	c.Set("role", string(token.User.Role))

	return token.User, true
}

// RequireAuth ensures a valid token is present before the handler runs.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireRole ensures the token is valid and the user has a specific role.
// The role check happens before the handler chain advances; a wrong role
// aborts with 403 and the handler never runs.
func RequireRole(requiredRole models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := authenticate(c)
		if !ok {
			return
		}

		if user.Role != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}

		c.Next()
	}
}

// CurrentUser returns the user loaded by RequireAuth. Only valid on routes
// behind RequireAuth/RequireRole.
func CurrentUser(c *gin.Context) models.User {
	return c.MustGet(userContextKey).(models.User)
}
