package handler

import (
	"net/http"

	"github.com/Eursukkul/restaurant-service/internal/middleware"
	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/service"
	"github.com/labstack/echo/v4"
)

type StaffHandler struct {
	svc   service.StaffService
	guard *middleware.SessionGuard
}

func NewStaffHandler(svc service.StaffService, guard *middleware.SessionGuard) *StaffHandler {
	return &StaffHandler{svc: svc, guard: guard}
}

func (h *StaffHandler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("/staff", h.guard.Require(models.RoleAdmin))
	staff.GET("", h.ListStaff)
	staff.POST("", h.CreateStaff)
	staff.GET("/:id", h.GetStaff)
	staff.PUT("/:id", h.UpdateStaff)
	staff.DELETE("/:id", h.DeleteStaff)
}

func (h *StaffHandler) ListStaff(c echo.Context) error {
	list, err := h.svc.ListStaff(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *StaffHandler) GetStaff(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	member, err := h.svc.GetStaff(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, member)
}

func (h *StaffHandler) CreateStaff(c echo.Context) error {
	img, closer, err := formImage(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	member, err := h.svc.CreateStaff(c.Request().Context(), staffInput(c), img)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, member)
}

func (h *StaffHandler) UpdateStaff(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	img, closer, err := formImage(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	member, err := h.svc.UpdateStaff(c.Request().Context(), id, staffInput(c), img)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, member)
}

func (h *StaffHandler) DeleteStaff(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.DeleteStaff(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func staffInput(c echo.Context) service.StaffInput {
	return service.StaffInput{
		Name:       c.FormValue("name"),
		Email:      c.FormValue("email"),
		Phone:      c.FormValue("phone"),
		Position:   c.FormValue("position"),
		Department: c.FormValue("department"),
		Status:     c.FormValue("status"),
	}
}
