package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role é o papel de um usuário no fluxo de checkins.
type Role string

const (
	RoleMotorista Role = "motorista"
	RoleLogistica Role = "logistica"
)

// User usa email como identificador de login; a senha é sempre um hash bcrypt.
type User struct {
	gorm.Model
	Email        string    `json:"email" gorm:"unique;not null"`
	Password     string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role" gorm:"type:varchar(30)"`
	Phone        string    `json:"phone"`
	CPF          string    `json:"cpf" gorm:"uniqueIndex"`
	Ativo        bool      `json:"is_active" gorm:"default:false"`
	Staff        bool      `json:"is_staff" gorm:"default:false"`
	DataRegistro time.Time `json:"date_joined"`
}

func (u *User) IsMotorista() bool {
	return u.Role == RoleMotorista
}

func (u *User) IsLogistica() bool {
	return u.Role == RoleLogistica
}

// FullName retorna nome e sobrenome, ou o email quando ambos estão vazios.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
