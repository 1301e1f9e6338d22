package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"checkin_logistica/internal/config"
	"checkin_logistica/internal/middleware"
	"checkin_logistica/internal/models"
	"checkin_logistica/internal/prometheus"
)

type signupInput struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Role            string `json:"role"`
	Phone           string `json:"phone"`
	CPF             string `json:"cpf"`
}

// SignupUser creates a new user and issues their token. Accounts start
// inactive and must be activated by the logistics team before login works.
func SignupUser(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Password != input.PasswordConfirm {
		c.JSON(http.StatusBadRequest, gin.H{"password": "As senhas não coincidem."})
		return
	}

	role, err := validateAndNormalizeRole(input.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	user := models.User{
		Email:        input.Email,
		Password:     hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         role,
		Phone:        input.Phone,
		CPF:          input.CPF,
		DataRegistro: time.Now(),
	}

	// User and token commit together: a failed token write must not leave
	// a tokenless account behind.
	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start transaction"})
		return
	}

	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "email ou cpf já cadastrado"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user: " + err.Error()})
		return
	}

	key, err := models.GenerateTokenKey()
	if err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}
	token := models.Token{Key: key, UserID: user.ID}
	if err := tx.Create(&token).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token: " + err.Error()})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not commit transaction: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token.Key,
		"user":  prepareUserResponse(user),
	})
}

// LoginUser authenticates by email and password. Inactive accounts get the
// same response as bad credentials.
func LoginUser(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			prometheus.RecordAuthAttempt(false)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Não foi possível autenticar com as credenciais fornecidas."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil || !user.Ativo {
		prometheus.RecordAuthAttempt(false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Não foi possível autenticar com as credenciais fornecidas."})
		return
	}

	token, err := getOrCreateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	prometheus.RecordAuthAttempt(true)
	c.JSON(http.StatusOK, gin.H{
		"token":   token.Key,
		"user_id": user.ID,
		"email":   user.Email,
	})
}

// LogoutUser revokes the caller's token.
func LogoutUser(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if err := config.DB.Where("user_id = ?", user.ID).Delete(&models.Token{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not revoke token: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logout realizado com sucesso."})
}

// TestToken confirms the caller's token is still valid.
func TestToken(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"message": "Token válido",
		"user":    prepareUserResponse(user),
	})
}

func validateAndNormalizeRole(roleInput string) (models.Role, error) {
	role := strings.ToLower(strings.TrimSpace(roleInput))
	switch models.Role(role) {
	case "", models.RoleMotorista, models.RoleLogistica:
		return models.Role(role), nil
	default:
		return "", errors.New("invalid role")
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// isUniqueViolation recognizes duplicate-key errors from Postgres (23505)
// and from GORM's driver-independent translation.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pq.Error
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// getOrCreateToken reuses the user's existing token or mints a new one.
func getOrCreateToken(userID uint) (models.Token, error) {
	var token models.Token
	err := config.DB.Where("user_id = ?", userID).First(&token).Error
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Token{}, err
	}

	key, err := models.GenerateTokenKey()
	if err != nil {
		return models.Token{}, err
	}
	token = models.Token{Key: key, UserID: userID}
	if err := config.DB.Create(&token).Error; err != nil {
		return models.Token{}, err
	}
	return token, nil
}

func prepareUserResponse(user models.User) gin.H {
	return gin.H{
		"id":          user.ID,
		"email":       user.Email,
		"first_name":  user.FirstName,
		"last_name":   user.LastName,
		"role":        user.Role,
		"phone":       user.Phone,
		"cpf":         user.CPF,
		"is_active":   user.Ativo,
		"date_joined": user.DataRegistro,
	}
}
