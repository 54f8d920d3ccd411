package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Eursukkul/restaurant-service/internal/dto"
	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every error as a dto.ErrorResponse. Anything that is
// not an *echo.HTTPError is logged and replaced with an opaque 500.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			log.Error("request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err,
			)
			he = echo.NewHTTPError(http.StatusInternalServerError, dto.ErrorResponse{
				Code:    "internal_error",
				Message: "something went wrong, please try again later",
			})
		}

		body := responseBody(he)
		if he.Code >= http.StatusInternalServerError && he.Internal != nil {
			log.Error("request failed", "path", c.Path(), "status", he.Code, "error", he.Internal)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(he.Code)
			return
		}
		_ = c.JSON(he.Code, body)
	}
}

func responseBody(he *echo.HTTPError) dto.ErrorResponse {
	switch m := he.Message.(type) {
	case dto.ErrorResponse:
		return m
	case *dto.ErrorResponse:
		return *m
	case string:
		return dto.ErrorResponse{Code: codeFor(he.Code), Message: m}
	default:
		return dto.ErrorResponse{Code: codeFor(he.Code), Message: http.StatusText(he.Code)}
	}
}

func codeFor(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}
