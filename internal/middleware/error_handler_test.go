package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Eursukkul/restaurant-service/internal/dto"
	"github.com/Eursukkul/restaurant-service/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, err error) (*httptest.ResponseRecorder, dto.ErrorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var logs bytes.Buffer
	ErrorHandler(logger.NewWithWriter(&logs, "test", "info"))(err, c)

	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestErrorHandler_TypedBody(t *testing.T) {
	rec, body := render(t, echo.NewHTTPError(http.StatusBadRequest, dto.ErrorResponse{
		Code:    "validation_error",
		Message: "validation failed",
		Fields:  map[string]string{"email": "must be a valid email address"},
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", body.Code)
	assert.Equal(t, "must be a valid email address", body.Fields["email"])
}

func TestErrorHandler_PlainMessage(t *testing.T) {
	rec, body := render(t, echo.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body.Code)
}

func TestErrorHandler_UnknownErrorIsOpaque(t *testing.T) {
	rec, body := render(t, errors.New(`pq: relation "orders" does not exist`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", body.Code)
	assert.NotContains(t, body.Message, "orders")
}
