package models

import (
	"encoding/json"
	"time"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"gorm.io/gorm"
)

// CheckinStatus é o estado de avaliação de um checkin. Começa em pendente e
// transiciona uma única vez, para aprovado ou rejeitado; ambos são terminais.
type CheckinStatus string

const (
	StatusPendente  CheckinStatus = "pendente"
	StatusAprovado  CheckinStatus = "aprovado"
	StatusRejeitado CheckinStatus = "rejeitado"
)

// Checkin é o registro enviado por um motorista e avaliado pela logística.
// O motorista dono é imutável após a criação; os campos de avaliação só são
// escritos pela transição pendente -> aprovado/rejeitado.
type Checkin struct {
	gorm.Model
	MotoristaID uint          `json:"motorista" gorm:"index;not null"`
	Motorista   User          `json:"-" gorm:"foreignKey:MotoristaID;constraint:OnDelete:CASCADE"`
	Status      CheckinStatus `json:"status" gorm:"type:varchar(10);default:'pendente'"`
	Comentario  string        `json:"comentario"`
	DataCriacao time.Time     `json:"data_criacao" gorm:"index"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	AprovadoPorID       *uint      `json:"aprovado_por"`
	AprovadoPor         *User      `json:"-" gorm:"foreignKey:AprovadoPorID;constraint:OnDelete:SET NULL"`
	ComentarioAvaliacao string     `json:"comentario_avaliacao"`
	DataAvaliacao       *time.Time `json:"data_avaliacao"`

	Arquivos []CheckinArquivo `json:"arquivos,omitempty" gorm:"foreignKey:CheckinID;constraint:OnDelete:CASCADE"`
}

// Pendente indica se o checkin ainda pode ser avaliado ou receber arquivos.
func (c *Checkin) Pendente() bool {
	return c.Status == StatusPendente
}

// LocalizacaoGeoJSON serializa as coordenadas do checkin como um Point
// GeoJSON (SRID 4326), ou nil quando não há coordenadas.
func (c *Checkin) LocalizacaoGeoJSON() (json.RawMessage, error) {
	if c.Latitude == nil || c.Longitude == nil {
		return nil, nil
	}
	point := geom.NewPointFlat(geom.XY, []float64{*c.Longitude, *c.Latitude}).SetSRID(4326)
	return geojson.Marshal(point)
}
