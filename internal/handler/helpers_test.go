package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Eursukkul/restaurant-service/internal/dto"
	"github.com/Eursukkul/restaurant-service/internal/middleware"
	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/pkg/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

var (
	guest   = models.Identity{SessionID: "sid-user", Role: models.RoleUser, UserID: 2}
	manager = models.Identity{SessionID: "sid-admin", Role: models.RoleAdmin, UserID: 1}
)

func testGuard() *middleware.SessionGuard {
	return middleware.NewSessionGuard(session.NewManager("test-secret", 30*time.Minute), false)
}

func jsonContext(method, target, body string, who models.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.WithIdentity(c, who)
	return c, rec
}

func withParam(c echo.Context, name, value string) echo.Context {
	c.SetParamNames(name)
	c.SetParamValues(value)
	return c
}

// httpError asserts err is an *echo.HTTPError and returns it with its body.
func httpError(t *testing.T, err error) (*echo.HTTPError, dto.ErrorResponse) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T: %v", err, err)
	body, _ := he.Message.(dto.ErrorResponse)
	return he, body
}
