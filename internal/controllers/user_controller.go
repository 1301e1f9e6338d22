package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"checkin_logistica/internal/config"
	"checkin_logistica/internal/middleware"
	"checkin_logistica/internal/models"
)

// updateUserInput defines the fields a user can change on their own account.
type updateUserInput struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Phone           *string `json:"phone"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"password_confirm"`
}

// adminUpdateUserInput adds the fields only the logistics team may change.
type adminUpdateUserInput struct {
	FirstName *string      `json:"first_name"`
	LastName  *string      `json:"last_name"`
	Phone     *string      `json:"phone"`
	CPF       *string      `json:"cpf"`
	Role      *models.Role `json:"role"`
	Ativo     *bool        `json:"is_active"`
	Staff     *bool        `json:"is_staff"`
}

// ListUsers returns every registered user. Logistics only.
func ListUsers(c *gin.Context) {
	var users []models.User
	if err := config.DB.Order("id").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing users: " + err.Error()})
		return
	}

	response := make([]gin.H, 0, len(users))
	for _, u := range users {
		response = append(response, prepareUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"data": response})
}

// ActivateUser sets is_active=true for the target user.
func ActivateUser(c *gin.Context) {
	setUserActive(c, true)
}

// DeactivateUser sets is_active=false for the target user.
func DeactivateUser(c *gin.Context) {
	setUserActive(c, false)
}

func setUserActive(c *gin.Context, active bool) {
	user, ok := findUserByParam(c)
	if !ok {
		return
	}

	user.Ativo = active
	if err := config.DB.Model(&user).Update("ativo", active).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": prepareUserResponse(user)})
}

// GetUser returns one user. Motoristas can only fetch themselves.
func GetUser(c *gin.Context) {
	requester := middleware.CurrentUser(c)

	target, ok := findUserByParam(c)
	if !ok {
		return
	}

	if !requester.IsLogistica() && requester.ID != target.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": prepareUserResponse(target)})
}

// EditUser lets the authenticated user update their own profile. A password
// change requires a matching confirmation.
func EditUser(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var input updateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Password != nil {
		if input.PasswordConfirm == nil || *input.Password != *input.PasswordConfirm {
			c.JSON(http.StatusBadRequest, gin.H{"password": "As senhas não coincidem."})
			return
		}
		hashed, err := hashPassword(*input.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
			return
		}
		user.Password = hashed
	}

	if err := config.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": prepareUserResponse(user)})
}

// EditUserAdmin lets the logistics team edit any account, including role
// and active/staff flags.
func EditUserAdmin(c *gin.Context) {
	user, ok := findUserByParam(c)
	if !ok {
		return
	}

	var input adminUpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Role != nil {
		role, err := validateAndNormalizeRole(string(*input.Role))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user.Role = role
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.CPF != nil {
		user.CPF = *input.CPF
	}
	if input.Ativo != nil {
		user.Ativo = *input.Ativo
	}
	if input.Staff != nil {
		user.Staff = *input.Staff
	}

	if err := config.DB.Save(&user).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "email ou cpf já cadastrado"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": prepareUserResponse(user)})
}

// findUserByParam loads the user referenced by the :id route parameter,
// writing the error response itself when that fails.
func findUserByParam(c *gin.Context) (models.User, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format."})
		return models.User{}, false
	}

	var user models.User
	if err := config.DB.First(&user, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		}
		return models.User{}, false
	}
	return user, true
}
