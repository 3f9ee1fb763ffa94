package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_WritesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, "照片不存在")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "照片不存在", body["message"])
	assert.NotContains(t, body, "data")
}

func TestSuccess_OmitsEmptyMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestInternalError_DefaultMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	InternalError(rec, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"internal server error"}`, rec.Body.String())
}

func TestOK_FlatBody(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, struct {
		Envelope
		URL string `json:"url"`
	}{Envelope: Envelope{Success: true}, URL: "/api/image-proxy?url=x"})

	assert.JSONEq(t, `{"success":true,"url":"/api/image-proxy?url=x"}`, rec.Body.String())
}
