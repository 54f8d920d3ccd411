package handler

import (
	"net/http"

	"github.com/Eursukkul/restaurant-service/internal/dto"
	"github.com/Eursukkul/restaurant-service/internal/middleware"
	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/service"
	"github.com/labstack/echo/v4"
)

type ReservationHandler struct {
	svc   service.ReservationService
	guard *middleware.SessionGuard
}

func NewReservationHandler(svc service.ReservationService, guard *middleware.SessionGuard) *ReservationHandler {
	return &ReservationHandler{svc: svc, guard: guard}
}

func (h *ReservationHandler) RegisterRoutes(api *echo.Group) {
	anyone := h.guard.Require()
	admin := h.guard.Require(models.RoleAdmin)

	r := api.Group("/reservations")
	r.POST("", h.CreateReservation, anyone)
	r.GET("", h.ListReservations, anyone)
	r.GET("/availability", h.CheckAvailability, anyone)
	r.GET("/:id", h.GetReservation, anyone)
	r.POST("/:id/status", h.UpdateStatus, admin)
	r.POST("/:id/cancel", h.CancelReservation, admin)
}

func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	var req dto.CreateReservationRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	res, err := h.svc.CreateReservation(c.Request().Context(), middleware.IdentityFrom(c), service.ReservationInput{
		CustomerName:    req.CustomerName,
		PhoneNumber:     req.PhoneNumber,
		Email:           req.Email,
		NumberOfGuests:  req.NumberOfGuests,
		Date:            req.ReservationDate,
		Time:            req.ReservationTime,
		SpecialRequests: req.SpecialRequests,
		Notes:           req.Notes,
	})
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToReservationResponse(res))
}

func (h *ReservationHandler) ListReservations(c echo.Context) error {
	list, err := h.svc.ListReservations(c.Request().Context(), middleware.IdentityFrom(c), service.ReservationQuery{
		Date:   c.QueryParam("date"),
		Status: c.QueryParam("status"),
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponses(list))
}

func (h *ReservationHandler) GetReservation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	res, err := h.svc.GetReservation(c.Request().Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponse(res))
}

func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req dto.StatusRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	res, err := h.svc.UpdateStatus(c.Request().Context(), id, models.ReservationStatus(req.Status))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponse(res))
}

func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	res, err := h.svc.CancelReservation(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponse(res))
}

func (h *ReservationHandler) CheckAvailability(c echo.Context) error {
	date, clock := c.QueryParam("date"), c.QueryParam("time")

	table, err := h.svc.CheckAvailability(c.Request().Context(), date, clock)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.AvailabilityResponse{Date: date, Time: clock, TableNumber: table})
}
