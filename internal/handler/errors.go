package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Eursukkul/restaurant-service/internal/dto"
	"github.com/Eursukkul/restaurant-service/internal/service"
	"github.com/labstack/echo/v4"
)

type errorKind struct {
	target error
	status int
	code   string
}

var errorKinds = []errorKind{
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrEmptyOrder, http.StatusUnprocessableEntity, "empty_order"},
	{service.ErrInsufficientAmount, http.StatusUnprocessableEntity, "insufficient_amount"},
	{service.ErrCapacityExceeded, http.StatusConflict, "capacity_exceeded"},
	{service.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{service.ErrPaymentDeclined, http.StatusPaymentRequired, "payment_declined"},
	{service.ErrPaymentTimeout, http.StatusGatewayTimeout, "payment_timeout"},
	{service.ErrPaymentInProgress, http.StatusConflict, "payment_in_progress"},
	{service.ErrCategoryInUse, http.StatusConflict, "category_in_use"},
	{service.ErrMenuItemInUse, http.StatusConflict, "menu_item_in_use"},
	{service.ErrUsernameTaken, http.StatusConflict, "username_taken"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
}

// mapError turns service errors into HTTP errors. Anything unrecognised,
// persistence failures included, is returned as is so the error handler
// logs it and answers with an opaque 500.
func mapError(err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, dto.ErrorResponse{
			Code:    "validation_error",
			Message: "one or more fields are invalid",
			Fields:  ve.Fields,
		})
	}

	for _, kind := range errorKinds {
		if errors.Is(err, kind.target) {
			return echo.NewHTTPError(kind.status, dto.ErrorResponse{
				Code:    kind.code,
				Message: err.Error(),
			})
		}
	}
	return err
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, dto.ErrorResponse{
		Code:    "bad_request",
		Message: msg,
	})
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid " + name)
	}
	return uint(id), nil
}

func bindJSON(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}
