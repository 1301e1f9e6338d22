package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"checkin_logistica/internal/config"
	"checkin_logistica/internal/models"
	"checkin_logistica/internal/routes"
)

const testPassword = "senha-super-secreta"

var userSeq atomic.Uint64

// setupTest wires the global DB handle to a fresh in-memory database and
// returns a router with the full route table.
func setupTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	config.DB = db
	config.MediaRoot = t.TempDir()

	return routes.SetupRouter()
}

// createUser inserts a user with a known password and a valid token.
func createUser(t *testing.T, role models.Role, active bool) (models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	n := userSeq.Add(1)
	user := models.User{
		Email:        fmt.Sprintf("user%d@example.com", n),
		Password:     string(hash),
		FirstName:    fmt.Sprintf("Usuário %d", n),
		Role:         role,
		CPF:          fmt.Sprintf("%011d", n),
		Ativo:        active,
		DataRegistro: time.Now(),
	}
	require.NoError(t, config.DB.Create(&user).Error)

	key, err := models.GenerateTokenKey()
	require.NoError(t, err)
	require.NoError(t, config.DB.Create(&models.Token{Key: key, UserID: user.ID}).Error)

	return user, key
}

// createCheckin inserts a checkin row directly, bypassing the HTTP surface.
func createCheckin(t *testing.T, motorista models.User, status models.CheckinStatus) models.Checkin {
	t.Helper()

	checkin := models.Checkin{
		MotoristaID: motorista.ID,
		Status:      status,
		Comentario:  "registro de teste",
		DataCriacao: time.Now(),
	}
	require.NoError(t, config.DB.Create(&checkin).Error)
	return checkin
}

func doJSON(r *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// doMultipart posts a multipart form with the given fields and one file part
// named "arquivos" per entry in files.
func doMultipart(t *testing.T, r *gin.Engine, path, token string, fields map[string]string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for name, content := range files {
		part, err := writer.CreateFormFile("arquivos", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
