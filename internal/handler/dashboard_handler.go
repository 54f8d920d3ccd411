package handler

import (
	"net/http"
	"strconv"

	"github.com/Eursukkul/restaurant-service/internal/dto"
	"github.com/Eursukkul/restaurant-service/internal/middleware"
	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/service"
	"github.com/labstack/echo/v4"
)

type DashboardHandler struct {
	svc   service.DashboardService
	guard *middleware.SessionGuard
}

func NewDashboardHandler(svc service.DashboardService, guard *middleware.SessionGuard) *DashboardHandler {
	return &DashboardHandler{svc: svc, guard: guard}
}

func (h *DashboardHandler) RegisterRoutes(api *echo.Group) {
	admin := api.Group("/admin", h.guard.Require(models.RoleAdmin))
	admin.GET("/dashboard", h.AdminDashboard)
	admin.GET("/activity", h.RecentActivity)

	api.GET("/user/dashboard", h.UserDashboard, h.guard.Require())
}

func (h *DashboardHandler) AdminDashboard(c echo.Context) error {
	summary, err := h.svc.AdminDashboard(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *DashboardHandler) UserDashboard(c echo.Context) error {
	summary, err := h.svc.UserDashboard(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, dto.UserDashboardResponse{
		UpcomingReservations: dto.ToReservationResponses(summary.UpcomingReservations),
		RecentOrders:         dto.ToOrderResponses(summary.RecentOrders),
	})
}

func (h *DashboardHandler) RecentActivity(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return badRequest("invalid limit")
		}
		limit = n
	}

	entries, err := h.svc.RecentActivity(c.Request().Context(), limit)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, entries)
}
