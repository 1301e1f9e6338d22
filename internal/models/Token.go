package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Token é o token bearer opaco de um usuário. Um por usuário; apagar o
// registro revoga o acesso (logout).
type Token struct {
	Key       string    `json:"token" gorm:"primaryKey;size:40"`
	UserID    uint      `json:"-" gorm:"uniqueIndex;not null"`
	User      User      `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
}

// GenerateTokenKey produz uma chave aleatória de 40 caracteres hexadecimais.
func GenerateTokenKey() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
