package handler

import (
	"net/http"
	"strings"

	"github.com/Eursukkul/restaurant-service/internal/dto"
	"github.com/Eursukkul/restaurant-service/internal/middleware"
	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type MenuHandler struct {
	svc   service.MenuService
	guard *middleware.SessionGuard
}

func NewMenuHandler(svc service.MenuService, guard *middleware.SessionGuard) *MenuHandler {
	return &MenuHandler{svc: svc, guard: guard}
}

func (h *MenuHandler) RegisterRoutes(api *echo.Group) {
	admin := h.guard.Require(models.RoleAdmin)

	api.GET("/menu", h.AvailableMenu, h.guard.Require())

	items := api.Group("/menu/items", admin)
	items.GET("", h.ListMenuItems)
	items.POST("", h.CreateMenuItem)
	items.GET("/:id", h.GetMenuItem)
	items.PUT("/:id", h.UpdateMenuItem)
	items.DELETE("/:id", h.DeleteMenuItem)
	items.PATCH("/:id/availability", h.SetAvailability)

	categories := api.Group("/categories", admin)
	categories.GET("", h.ListCategories)
	categories.POST("", h.CreateCategory)
	categories.PUT("/:id", h.RenameCategory)
	categories.DELETE("/:id", h.DeleteCategory)
}

func (h *MenuHandler) AvailableMenu(c echo.Context) error {
	sections, err := h.svc.AvailableMenu(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, sections)
}

func (h *MenuHandler) ListMenuItems(c echo.Context) error {
	items, err := h.svc.ListMenuItems(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *MenuHandler) GetMenuItem(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	item, err := h.svc.GetMenuItem(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) CreateMenuItem(c echo.Context) error {
	img, closer, err := formImage(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	item, err := h.svc.CreateMenuItem(c.Request().Context(), menuItemInput(c), img)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *MenuHandler) UpdateMenuItem(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	img, closer, err := formImage(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	item, err := h.svc.UpdateMenuItem(c.Request().Context(), id, menuItemInput(c), img)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) DeleteMenuItem(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.DeleteMenuItem(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *MenuHandler) SetAvailability(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req dto.AvailabilityRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.IsAvailable == nil {
		return mapError(&service.ValidationError{Fields: map[string]string{"is_available": "is required"}})
	}

	item, err := h.svc.SetAvailability(c.Request().Context(), id, *req.IsAvailable)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) ListCategories(c echo.Context) error {
	categories, err := h.svc.ListCategories(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *MenuHandler) CreateCategory(c echo.Context) error {
	var req dto.CategoryRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	category, err := h.svc.CreateCategory(c.Request().Context(), req.Name)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *MenuHandler) RenameCategory(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req dto.CategoryRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	category, err := h.svc.RenameCategory(c.Request().Context(), id, req.Name)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *MenuHandler) DeleteCategory(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.DeleteCategory(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// menuItemInput reads the item fields of a multipart form. An unparsable
// price is left at zero and reported by the service.
func menuItemInput(c echo.Context) service.MenuItemInput {
	price, err := decimal.NewFromString(strings.TrimSpace(c.FormValue("price")))
	if err != nil {
		price = decimal.Zero
	}

	return service.MenuItemInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       price,
		CategoryID:  formUint(c, "category_id"),
		IsAvailable: formBool(c, "is_available", true),
	}
}
