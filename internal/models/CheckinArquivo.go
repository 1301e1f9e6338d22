package models

import (
	"time"

	"gorm.io/gorm"
)

// CheckinArquivo é um arquivo anexado a um checkin. Arquivo guarda o caminho
// relativo ao MEDIA_ROOT; NomeArquivo preserva o nome original do upload.
type CheckinArquivo struct {
	gorm.Model
	CheckinID   uint      `json:"checkin_id" gorm:"index;not null"`
	Arquivo     string    `json:"arquivo"`
	NomeArquivo string    `json:"nome_arquivo"`
	DataUpload  time.Time `json:"data_upload"`
}
