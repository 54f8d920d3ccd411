package handler

import (
	"net/http"

	"github.com/Eursukkul/restaurant-service/internal/dto"
	"github.com/Eursukkul/restaurant-service/internal/middleware"
	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/service"
	"github.com/labstack/echo/v4"
)

type FeedbackHandler struct {
	svc   service.FeedbackService
	guard *middleware.SessionGuard
}

func NewFeedbackHandler(svc service.FeedbackService, guard *middleware.SessionGuard) *FeedbackHandler {
	return &FeedbackHandler{svc: svc, guard: guard}
}

func (h *FeedbackHandler) RegisterRoutes(api *echo.Group) {
	admin := h.guard.Require(models.RoleAdmin)

	f := api.Group("/feedback")
	f.POST("", h.SubmitFeedback, h.guard.Require())
	f.GET("/ratings", h.AverageRatings, admin)
	f.GET("/dishes", h.DishAnalytics, admin)
}

func (h *FeedbackHandler) SubmitFeedback(c echo.Context) error {
	var req dto.FeedbackRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	dishes := make([]service.DishRating, len(req.Dishes))
	for i, d := range req.Dishes {
		dishes[i] = service.DishRating{MenuItemID: d.MenuItemID, Rating: d.Rating}
	}

	feedback, err := h.svc.SubmitFeedback(c.Request().Context(), middleware.IdentityFrom(c), service.FeedbackInput{
		OrderID:       req.OrderID,
		FoodQuality:   req.FoodQualityRating,
		Service:       req.ServiceRating,
		Ambiance:      req.AmbianceRating,
		Cleanliness:   req.CleanlinessRating,
		ValueForMoney: req.ValueForMoneyRating,
		Comments:      req.Comments,
		Dishes:        dishes,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, feedback)
}

func (h *FeedbackHandler) AverageRatings(c echo.Context) error {
	summary, err := h.svc.AverageRatings(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *FeedbackHandler) DishAnalytics(c echo.Context) error {
	analytics, err := h.svc.DishAnalytics(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, analytics)
}
