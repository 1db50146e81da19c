package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "opsledger.io/opsledger/internal/pkg/errors"
)

func newErrorRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/boom", handler)
	return r
}

func TestErrorHandlerRendersAppError(t *testing.T) {
	r := newErrorRouter(func(c *gin.Context) {
		_ = c.Error(apperrors.NotFound("POLICY_NOT_FOUND", "policy", "pl-1"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "POLICY_NOT_FOUND", body["code"])
	assert.Equal(t, "policy pl-1 not found", body["message"])
}

func TestErrorHandlerMasksUnknownErrors(t *testing.T) {
	r := newErrorRouter(func(c *gin.Context) {
		_ = c.Error(errors.New("pgx: connection refused"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.NotContains(t, body["message"], "pgx")
}

func TestErrorHandlerUsesLastError(t *testing.T) {
	r := newErrorRouter(func(c *gin.Context) {
		_ = c.Error(errors.New("first"))
		_ = c.Error(apperrors.New("STEP_ALREADY_PROCESSED", "Step already processed", http.StatusConflict))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "STEP_ALREADY_PROCESSED")
}

func TestErrorHandlerPassesThroughCleanRequests(t *testing.T) {
	r := newErrorRouter(func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
