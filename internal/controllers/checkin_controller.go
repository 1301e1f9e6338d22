package controllers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"checkin_logistica/internal/config"
	"checkin_logistica/internal/middleware"
	"checkin_logistica/internal/models"
	"checkin_logistica/internal/prometheus"
)

// avaliacaoInput is the optional body of an approve/reject call.
type avaliacaoInput struct {
	ComentarioAvaliacao string `json:"comentario_avaliacao"`
}

// ListCheckins lists checkins newest-first. Logística sees every checkin;
// motoristas see only their own.
func ListCheckins(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var checkins []models.Checkin
	if err := scopedCheckins(user).Find(&checkins).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing checkins: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": prepareCheckinList(checkins)})
}

// ListCheckinsPendentes is the logistics review queue: pending only.
func ListCheckinsPendentes(c *gin.Context) {
	var checkins []models.Checkin
	query := checkinQuery().Where("status = ?", models.StatusPendente)
	if err := query.Find(&checkins).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing checkins: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": prepareCheckinList(checkins)})
}

// GetCheckin returns one checkin with its files, under the same role
// scoping as the listing.
func GetCheckin(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, ok := parseCheckinID(c)
	if !ok {
		return
	}

	var checkin models.Checkin
	if err := scopedCheckins(user).Where("checkins.id = ?", id).First(&checkin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Checkin not found."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, prepareCheckinDetail(checkin))
}

// CreateCheckin submits a new checkin with at least one attached file.
// The checkin row and every file row are created in one transaction: a
// failure on any file leaves no orphaned checkin behind.
func CreateCheckin(c *gin.Context) {
	motorista := middleware.CurrentUser(c)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form: " + err.Error()})
		return
	}

	comentario := formValue(form, "comentario")
	latitude, err := formFloat(form, "latitude")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"latitude": "Valor inválido."})
		return
	}
	longitude, err := formFloat(form, "longitude")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"longitude": "Valor inválido."})
		return
	}

	arquivos := form.File["arquivos"]
	if len(arquivos) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"arquivos": "É necessário enviar pelo menos um arquivo."})
		return
	}

	checkin := models.Checkin{
		MotoristaID: motorista.ID,
		Status:      models.StatusPendente,
		Comentario:  comentario,
		DataCriacao: time.Now(),
		Latitude:    latitude,
		Longitude:   longitude,
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start transaction"})
		return
	}

	if err := tx.Create(&checkin).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create checkin: " + err.Error()})
		return
	}

	if _, err := saveArquivos(c, tx, &checkin, arquivos); err != nil {
		tx.Rollback()
		removeCheckinDir(checkin.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store files: " + err.Error()})
		return
	}

	if err := tx.Commit().Error; err != nil {
		removeCheckinDir(checkin.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not commit transaction: " + err.Error()})
		return
	}

	prometheus.RecordCheckinOperation("create")
	logrus.WithFields(logrus.Fields{
		"checkin_id": checkin.ID,
		"motorista":  motorista.Email,
		"arquivos":   len(arquivos),
	}).Info("checkin criado")

	reloadCheckin(&checkin)
	c.JSON(http.StatusCreated, prepareCheckinDetail(checkin))
}

// UploadArquivos appends files to a pending checkin owned by the caller.
func UploadArquivos(c *gin.Context) {
	motorista := middleware.CurrentUser(c)

	id, ok := parseCheckinID(c)
	if !ok {
		return
	}

	// Ownership is part of the lookup: another driver's checkin is a 404,
	// not a 403, so ids are not probeable.
	var checkin models.Checkin
	if err := config.DB.Where("id = ? AND motorista_id = ?", id, motorista.ID).First(&checkin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Checkin not found."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		}
		return
	}

	if !checkin.Pendente() {
		c.JSON(http.StatusConflict, gin.H{"erro": "Não é possível adicionar arquivos a um checkin já avaliado."})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form: " + err.Error()})
		return
	}
	arquivos := form.File["arquivos"]
	if len(arquivos) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"arquivos": "É necessário enviar pelo menos um arquivo."})
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start transaction"})
		return
	}

	salvos, err := saveArquivos(c, tx, &checkin, arquivos)
	if err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store files: " + err.Error()})
		return
	}

	if err := tx.Commit().Error; err != nil {
		removeArquivoFiles(salvos)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not commit transaction: " + err.Error()})
		return
	}

	prometheus.RecordCheckinOperation("upload")
	c.JSON(http.StatusCreated, gin.H{"arquivos": salvos})
}

// AprovarCheckin marks a pending checkin as approved.
func AprovarCheckin(c *gin.Context) {
	avaliarCheckin(c, models.StatusAprovado, "aprovar")
}

// RejeitarCheckin marks a pending checkin as rejected.
func RejeitarCheckin(c *gin.Context) {
	avaliarCheckin(c, models.StatusRejeitado, "rejeitar")
}

// avaliarCheckin applies the single legal transition out of pendente. The
// status guard lives in the UPDATE's WHERE clause, so two concurrent
// evaluations can never both win: the loser matches zero rows and gets a
// state-conflict.
func avaliarCheckin(c *gin.Context, novoStatus models.CheckinStatus, operation string) {
	avaliador := middleware.CurrentUser(c)

	id, ok := parseCheckinID(c)
	if !ok {
		return
	}

	var checkin models.Checkin
	if err := config.DB.First(&checkin, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Checkin not found."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		}
		return
	}

	var input avaliacaoInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := config.DB.Model(&models.Checkin{}).
		Where("id = ? AND status = ?", checkin.ID, models.StatusPendente).
		Updates(map[string]interface{}{
			"status":               novoStatus,
			"aprovado_por_id":      avaliador.ID,
			"comentario_avaliacao": input.ComentarioAvaliacao,
			"data_avaliacao":       time.Now(),
		})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update checkin: " + result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"erro": "Este checkin já foi avaliado."})
		return
	}

	prometheus.RecordCheckinOperation(operation)
	logrus.WithFields(logrus.Fields{
		"checkin_id": checkin.ID,
		"status":     novoStatus,
		"avaliador":  avaliador.Email,
	}).Info("checkin avaliado")

	reloadCheckin(&checkin)
	c.JSON(http.StatusOK, prepareCheckinDetail(checkin))
}

// --- helpers ---

func parseCheckinID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid checkin ID format."})
		return 0, false
	}
	return uint(id), true
}

func checkinQuery() *gorm.DB {
	return config.DB.
		Preload("Arquivos").
		Preload("Motorista").
		Preload("AprovadoPor").
		Order("data_criacao DESC")
}

func scopedCheckins(user models.User) *gorm.DB {
	query := checkinQuery()
	if user.IsLogistica() {
		return query
	}
	return query.Where("motorista_id = ?", user.ID)
}

func reloadCheckin(checkin *models.Checkin) {
	if err := checkinQuery().First(checkin, checkin.ID).Error; err != nil {
		logrus.WithError(err).Warn("could not reload checkin after write")
	}
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func formFloat(form *multipart.Form, key string) (*float64, error) {
	raw := formValue(form, key)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// saveArquivos persists each upload under MEDIA_ROOT/checkins/<id>/ with a
// uuid-prefixed name and records one CheckinArquivo row per file inside tx.
// On error the files already written for this batch are removed, so a
// rolled-back transaction leaves no stray uploads behind.
func saveArquivos(c *gin.Context, tx *gorm.DB, checkin *models.Checkin, files []*multipart.FileHeader) ([]models.CheckinArquivo, error) {
	dir := checkinDir(checkin.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	salvos := make([]models.CheckinArquivo, 0, len(files))
	for _, file := range files {
		nome := filepath.Base(file.Filename)
		stored := uuid.New().String() + "_" + nome
		if err := c.SaveUploadedFile(file, filepath.Join(dir, stored)); err != nil {
			removeArquivoFiles(salvos)
			return nil, err
		}

		arquivo := models.CheckinArquivo{
			CheckinID:   checkin.ID,
			Arquivo:     filepath.Join("checkins", strconv.FormatUint(uint64(checkin.ID), 10), stored),
			NomeArquivo: nome,
			DataUpload:  time.Now(),
		}
		if err := tx.Create(&arquivo).Error; err != nil {
			os.Remove(filepath.Join(dir, stored))
			removeArquivoFiles(salvos)
			return nil, err
		}
		salvos = append(salvos, arquivo)
	}
	return salvos, nil
}

// removeArquivoFiles deletes the stored files of a failed batch without
// touching the checkin's previously accepted uploads.
func removeArquivoFiles(arquivos []models.CheckinArquivo) {
	for _, arquivo := range arquivos {
		if err := os.Remove(filepath.Join(config.MediaRoot, arquivo.Arquivo)); err != nil {
			logrus.WithError(err).Warn("could not clean up checkin file")
		}
	}
}

func checkinDir(checkinID uint) string {
	return filepath.Join(config.MediaRoot, "checkins", strconv.FormatUint(uint64(checkinID), 10))
}

func removeCheckinDir(checkinID uint) {
	if err := os.RemoveAll(checkinDir(checkinID)); err != nil {
		logrus.WithError(err).Warn("could not clean up checkin files")
	}
}

func prepareCheckinList(checkins []models.Checkin) []gin.H {
	response := make([]gin.H, 0, len(checkins))
	for i := range checkins {
		ck := &checkins[i]
		item := gin.H{
			"id":             ck.ID,
			"motorista_nome": ck.Motorista.FullName(),
			"status":         ck.Status,
			"data_criacao":   ck.DataCriacao,
			"avaliador_nome": nil,
			"data_avaliacao": ck.DataAvaliacao,
			"qtd_arquivos":   len(ck.Arquivos),
		}
		if ck.AprovadoPor != nil {
			item["avaliador_nome"] = ck.AprovadoPor.FullName()
		}
		response = append(response, item)
	}
	return response
}

func prepareCheckinDetail(checkin models.Checkin) gin.H {
	detail := gin.H{
		"id":                   checkin.ID,
		"motorista":            checkin.MotoristaID,
		"motorista_nome":       checkin.Motorista.FullName(),
		"status":               checkin.Status,
		"comentario":           checkin.Comentario,
		"data_criacao":         checkin.DataCriacao,
		"data_atualizacao":     checkin.UpdatedAt,
		"latitude":             checkin.Latitude,
		"longitude":            checkin.Longitude,
		"aprovado_por":         checkin.AprovadoPorID,
		"avaliador_nome":       nil,
		"comentario_avaliacao": checkin.ComentarioAvaliacao,
		"data_avaliacao":       checkin.DataAvaliacao,
		"arquivos":             checkin.Arquivos,
	}
	if checkin.AprovadoPor != nil {
		detail["avaliador_nome"] = checkin.AprovadoPor.FullName()
	}
	if localizacao, err := checkin.LocalizacaoGeoJSON(); err == nil && localizacao != nil {
		detail["localizacao"] = localizacao
	}
	return detail
}
