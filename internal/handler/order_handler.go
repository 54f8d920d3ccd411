package handler

import (
	"net/http"

	"github.com/Eursukkul/restaurant-service/internal/dto"
	"github.com/Eursukkul/restaurant-service/internal/middleware"
	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/service"
	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	svc   service.OrderService
	guard *middleware.SessionGuard
}

func NewOrderHandler(svc service.OrderService, guard *middleware.SessionGuard) *OrderHandler {
	return &OrderHandler{svc: svc, guard: guard}
}

func (h *OrderHandler) RegisterRoutes(api *echo.Group) {
	anyone := h.guard.Require()
	admin := h.guard.Require(models.RoleAdmin)

	o := api.Group("/orders")
	o.GET("/current", h.CurrentDraft, anyone)
	o.PUT("/current", h.UpdateDraft, anyone)
	o.POST("/current/items", h.AddItem, anyone)
	o.PATCH("/items/:itemId", h.ChangeQuantity, anyone)
	o.DELETE("/items/:itemId", h.RemoveItem, anyone)
	o.POST("/process-payment", h.ProcessPayment, anyone)
	o.GET("/history", h.History, anyone)
	o.GET("/:id", h.GetOrder, anyone)
	o.POST("/:id/submit", h.SubmitOrder, anyone)
	o.POST("/:id/cancel", h.CancelOrder, anyone)

	o.GET("", h.ListOrders, admin)
	o.POST("/:id/status", h.UpdateStatus, admin)
}

func (h *OrderHandler) CurrentDraft(c echo.Context) error {
	order, err := h.svc.CurrentDraft(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

func (h *OrderHandler) UpdateDraft(c echo.Context) error {
	var req dto.UpdateDraftRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	order, err := h.svc.UpdateDraft(c.Request().Context(), middleware.IdentityFrom(c), req.NumberOfGuests, req.Notes)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

func (h *OrderHandler) AddItem(c echo.Context) error {
	var req dto.AddItemRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	order, err := h.svc.AddItem(c.Request().Context(), middleware.IdentityFrom(c), req.MenuItemID, req.Quantity, req.Notes)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

func (h *OrderHandler) ChangeQuantity(c echo.Context) error {
	itemID, err := parseID(c, "itemId")
	if err != nil {
		return err
	}

	var req dto.ChangeQuantityRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	order, err := h.svc.ChangeQuantity(c.Request().Context(), middleware.IdentityFrom(c), itemID, req.Change)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

func (h *OrderHandler) RemoveItem(c echo.Context) error {
	itemID, err := parseID(c, "itemId")
	if err != nil {
		return err
	}

	order, err := h.svc.RemoveItem(c.Request().Context(), middleware.IdentityFrom(c), itemID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

func (h *OrderHandler) SubmitOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.svc.SubmitOrder(c.Request().Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

func (h *OrderHandler) ProcessPayment(c echo.Context) error {
	var req dto.PaymentRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.OrderID == 0 {
		return mapError(&service.ValidationError{Fields: map[string]string{"order_id": "is required"}})
	}

	result, err := h.svc.ProcessPayment(c.Request().Context(), middleware.IdentityFrom(c), service.PaymentRequest{
		OrderID:        req.OrderID,
		Method:         service.PaymentMethod(req.PaymentMethod),
		Amount:         req.Amount,
		AmountReceived: req.AmountReceived,
		CardNumber:     req.CardNumber,
		ExpiryDate:     req.ExpiryDate,
		CVV:            req.CVV,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToPaymentResponse(result))
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.svc.GetOrder(c.Request().Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.svc.CancelOrder(c.Request().Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

func (h *OrderHandler) History(c echo.Context) error {
	orders, err := h.svc.History(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToOrderResponses(orders))
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	orders, err := h.svc.ListOrders(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToOrderResponses(orders))
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req dto.StatusRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	order, err := h.svc.UpdateStatus(c.Request().Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}
