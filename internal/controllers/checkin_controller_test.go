package controllers_test

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkin_logistica/internal/config"
	"checkin_logistica/internal/models"
)

func TestCreateCheckinComArquivo(t *testing.T) {
	r := setupTest(t)
	motorista, token := createUser(t, models.RoleMotorista, true)

	w := doMultipart(t, r, "/api/checkins/criar", token,
		map[string]string{
			"comentario": "entrega concluída",
			"latitude":   "-23.550520",
			"longitude":  "-46.633308",
		},
		map[string]string{"canhoto.jpg": "conteudo-da-foto"},
	)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, string(models.StatusPendente), body["status"])
	assert.Equal(t, "entrega concluída", body["comentario"])
	assert.NotNil(t, body["localizacao"])

	var checkin models.Checkin
	require.NoError(t, config.DB.Preload("Arquivos").Where("motorista_id = ?", motorista.ID).First(&checkin).Error)
	require.Len(t, checkin.Arquivos, 1)
	assert.Equal(t, "canhoto.jpg", checkin.Arquivos[0].NomeArquivo)

	// the upload must exist on disk under the checkin's directory
	_, err := os.Stat(filepath.Join(config.MediaRoot, checkin.Arquivos[0].Arquivo))
	assert.NoError(t, err)
}

func TestCreateCheckinSemArquivoNaoPersisteNada(t *testing.T) {
	r := setupTest(t)
	_, token := createUser(t, models.RoleMotorista, true)

	w := doMultipart(t, r, "/api/checkins/criar", token,
		map[string]string{"comentario": "sem anexos"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, config.DB.Model(&models.Checkin{}).Count(&count).Error)
	assert.Zero(t, count, "a submissão rejeitada não pode deixar checkin órfão")
}

func TestCreateCheckinExigePapelMotorista(t *testing.T) {
	r := setupTest(t)
	_, token := createUser(t, models.RoleLogistica, true)

	w := doMultipart(t, r, "/api/checkins/criar", token, nil,
		map[string]string{"foto.jpg": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAvaliacaoAconteceUmaUnicaVez(t *testing.T) {
	r := setupTest(t)
	motorista, _ := createUser(t, models.RoleMotorista, true)
	avaliadora, tokenLog := createUser(t, models.RoleLogistica, true)
	checkin := createCheckin(t, motorista, models.StatusPendente)

	path := fmt.Sprintf("/api/checkins/%d/aprovar", checkin.ID)
	w := doJSON(r, http.MethodPost, path, tokenLog, map[string]any{"comentario_avaliacao": "ok"})
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.Checkin
	require.NoError(t, config.DB.First(&stored, checkin.ID).Error)
	assert.Equal(t, models.StatusAprovado, stored.Status)
	require.NotNil(t, stored.AprovadoPorID)
	assert.Equal(t, avaliadora.ID, *stored.AprovadoPorID)
	assert.Equal(t, "ok", stored.ComentarioAvaliacao)
	assert.NotNil(t, stored.DataAvaliacao)

	// a second evaluation on the same checkin must lose, whoever calls it
	outra, tokenOutra := createUser(t, models.RoleLogistica, true)
	w = doJSON(r, http.MethodPost, fmt.Sprintf("/api/checkins/%d/rejeitar", checkin.ID), tokenOutra,
		map[string]any{"comentario_avaliacao": "não conforme"})
	assert.Equal(t, http.StatusConflict, w.Code)

	require.NoError(t, config.DB.First(&stored, checkin.ID).Error)
	assert.Equal(t, models.StatusAprovado, stored.Status)
	assert.Equal(t, avaliadora.ID, *stored.AprovadoPorID)
	assert.NotEqual(t, outra.ID, *stored.AprovadoPorID)
	assert.Equal(t, "ok", stored.ComentarioAvaliacao)
}

func TestRejeitarSemCorpo(t *testing.T) {
	r := setupTest(t)
	motorista, _ := createUser(t, models.RoleMotorista, true)
	_, tokenLog := createUser(t, models.RoleLogistica, true)
	checkin := createCheckin(t, motorista, models.StatusPendente)

	w := doJSON(r, http.MethodPost, fmt.Sprintf("/api/checkins/%d/rejeitar", checkin.ID), tokenLog, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.Checkin
	require.NoError(t, config.DB.First(&stored, checkin.ID).Error)
	assert.Equal(t, models.StatusRejeitado, stored.Status)
}

func TestAvaliarCheckinInexistente(t *testing.T) {
	r := setupTest(t)
	_, tokenLog := createUser(t, models.RoleLogistica, true)

	w := doJSON(r, http.MethodPost, "/api/checkins/9999/aprovar", tokenLog, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAvaliarExigePapelLogistica(t *testing.T) {
	r := setupTest(t)
	motorista, token := createUser(t, models.RoleMotorista, true)
	checkin := createCheckin(t, motorista, models.StatusPendente)

	// a motorista cannot approve their own checkin: 403 and the row stays
	// pendente, with no evaluator recorded
	w := doJSON(r, http.MethodPost, fmt.Sprintf("/api/checkins/%d/aprovar", checkin.ID), token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var stored models.Checkin
	require.NoError(t, config.DB.First(&stored, checkin.ID).Error)
	assert.Equal(t, models.StatusPendente, stored.Status)
	assert.Nil(t, stored.AprovadoPorID)
	assert.Nil(t, stored.DataAvaliacao)
}

func TestUploadArquivoEmCheckinPendente(t *testing.T) {
	r := setupTest(t)
	motorista, token := createUser(t, models.RoleMotorista, true)
	checkin := createCheckin(t, motorista, models.StatusPendente)

	w := doMultipart(t, r, fmt.Sprintf("/api/checkins/%d/upload-arquivo", checkin.ID), token,
		nil, map[string]string{"nota.pdf": "conteudo"})
	require.Equal(t, http.StatusCreated, w.Code)

	var count int64
	require.NoError(t, config.DB.Model(&models.CheckinArquivo{}).Where("checkin_id = ?", checkin.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUploadArquivoEmCheckinAvaliado(t *testing.T) {
	r := setupTest(t)
	motorista, token := createUser(t, models.RoleMotorista, true)
	checkin := createCheckin(t, motorista, models.StatusAprovado)

	w := doMultipart(t, r, fmt.Sprintf("/api/checkins/%d/upload-arquivo", checkin.ID), token,
		nil, map[string]string{"nota.pdf": "conteudo"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUploadComFalhaNaoDeixaArquivosOrfaos(t *testing.T) {
	r := setupTest(t)
	motorista, token := createUser(t, models.RoleMotorista, true)
	checkin := createCheckin(t, motorista, models.StatusPendente)

	// force the attachment insert to fail after the file hits the disk
	require.NoError(t, config.DB.Migrator().DropTable(&models.CheckinArquivo{}))

	w := doMultipart(t, r, fmt.Sprintf("/api/checkins/%d/upload-arquivo", checkin.ID), token,
		nil, map[string]string{"nota.pdf": "conteudo"})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	dir := filepath.Join(config.MediaRoot, "checkins", fmt.Sprint(checkin.ID))
	entries, err := os.ReadDir(dir)
	if err == nil {
		assert.Empty(t, entries, "upload rejeitado não pode deixar arquivo no disco")
	} else {
		assert.True(t, os.IsNotExist(err))
	}
}

func TestUploadArquivoDeOutroMotorista(t *testing.T) {
	r := setupTest(t)
	dona, _ := createUser(t, models.RoleMotorista, true)
	_, tokenIntruso := createUser(t, models.RoleMotorista, true)
	checkin := createCheckin(t, dona, models.StatusPendente)

	w := doMultipart(t, r, fmt.Sprintf("/api/checkins/%d/upload-arquivo", checkin.ID), tokenIntruso,
		nil, map[string]string{"nota.pdf": "conteudo"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListagemEscopadaPorPapel(t *testing.T) {
	r := setupTest(t)
	motoristaA, tokenA := createUser(t, models.RoleMotorista, true)
	motoristaB, _ := createUser(t, models.RoleMotorista, true)
	_, tokenLog := createUser(t, models.RoleLogistica, true)

	createCheckin(t, motoristaA, models.StatusPendente)
	createCheckin(t, motoristaB, models.StatusPendente)

	w := doJSON(r, http.MethodGet, "/api/checkins", tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"], 1, "motorista vê apenas os próprios checkins")

	w = doJSON(r, http.MethodGet, "/api/checkins", tokenLog, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"], 2, "logística vê todos os checkins")
}

func TestDetalheDeCheckinAlheioRetorna404(t *testing.T) {
	r := setupTest(t)
	dona, _ := createUser(t, models.RoleMotorista, true)
	_, tokenIntruso := createUser(t, models.RoleMotorista, true)
	checkin := createCheckin(t, dona, models.StatusPendente)

	w := doJSON(r, http.MethodGet, fmt.Sprintf("/api/checkins/%d", checkin.ID), tokenIntruso, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFilaDePendentes(t *testing.T) {
	r := setupTest(t)
	motorista, tokenMot := createUser(t, models.RoleMotorista, true)
	_, tokenLog := createUser(t, models.RoleLogistica, true)

	createCheckin(t, motorista, models.StatusPendente)
	createCheckin(t, motorista, models.StatusAprovado)

	w := doJSON(r, http.MethodGet, "/api/checkins/pendentes", tokenLog, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"], 1)

	w = doJSON(r, http.MethodGet, "/api/checkins/pendentes", tokenMot, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// Fluxo completo: motorista envia, logística aprova, rejeição posterior
// não altera nada.
func TestFluxoCompletoDeAprovacao(t *testing.T) {
	r := setupTest(t)
	_, tokenMot := createUser(t, models.RoleMotorista, true)
	aprovadora, tokenLog := createUser(t, models.RoleLogistica, true)

	w := doMultipart(t, r, "/api/checkins/criar", tokenMot,
		map[string]string{"comentario": "entrega concluída"},
		map[string]string{"comprovante.jpg": "foto"})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	id := uint(body["id"].(float64))
	require.Equal(t, string(models.StatusPendente), body["status"])

	w = doJSON(r, http.MethodPost, fmt.Sprintf("/api/checkins/%d/aprovar", id), tokenLog,
		map[string]any{"comentario_avaliacao": "ok"})
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, string(models.StatusAprovado), body["status"])
	assert.EqualValues(t, aprovadora.ID, body["aprovado_por"])
	assert.NotNil(t, body["data_avaliacao"])

	w = doJSON(r, http.MethodPost, fmt.Sprintf("/api/checkins/%d/rejeitar", id), tokenLog, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var stored models.Checkin
	require.NoError(t, config.DB.First(&stored, id).Error)
	assert.Equal(t, models.StatusAprovado, stored.Status)
}
